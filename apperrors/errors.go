// Package apperrors holds the error taxonomy shared by the booking engine and
// the HTTP layer. Every failure the core returns to a caller is an *Error.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
	KindInvalidTransition    Kind = "invalid_transition"
	KindInsufficientSeats    Kind = "insufficient_seats"
	KindRideNotBookable      Kind = "ride_not_bookable"
	KindPaymentRequired      Kind = "payment_required"
	KindActorRestricted      Kind = "actor_restricted"
	KindInvalidScore         Kind = "invalid_score"
	KindDuplicateRating      Kind = "duplicate_rating"
	KindRideNotCompleted     Kind = "ride_not_completed"
	KindNotVerified          Kind = "not_verified"
	KindSubscriptionRequired Kind = "subscription_required"
	KindValidation           Kind = "validation_error"
	KindConflict             Kind = "conflict"
	KindUnauthorized         Kind = "unauthorized"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind. A target carrying a Message must also match the message,
// so errors.Is(err, ErrNotFound) holds for any missing entity while
// errors.Is(err, ErrRideNotFound) only holds for rides.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrNotVerified       = &Error{Kind: KindNotVerified}

	ErrRideNotFound         = &Error{Kind: KindNotFound, Message: "ride not found"}
	ErrBookingNotFound      = &Error{Kind: KindNotFound, Message: "booking not found"}
	ErrUserNotFound         = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrProfileNotFound      = &Error{Kind: KindNotFound, Message: "driver profile not found"}
	ErrSubscriptionNotFound = &Error{Kind: KindNotFound, Message: "subscription not found"}
	ErrNotificationNotFound = &Error{Kind: KindNotFound, Message: "notification not found"}
	ErrChatRoomNotFound     = &Error{Kind: KindNotFound, Message: "chat room not found"}

	ErrInsufficientSeats    = &Error{Kind: KindInsufficientSeats, Message: "not enough seats available"}
	ErrRideNotBookable      = &Error{Kind: KindRideNotBookable, Message: "ride is no longer open for booking"}
	ErrOwnRide              = &Error{Kind: KindForbidden, Message: "you cannot book your own ride"}
	ErrPaymentRequired      = &Error{Kind: KindPaymentRequired, Message: "payment required before booking"}
	ErrActorRestricted      = &Error{Kind: KindActorRestricted, Message: "your account is temporarily restricted due to low rating"}
	ErrInvalidScore         = &Error{Kind: KindInvalidScore, Message: "score must be between 1 and 5"}
	ErrDuplicateRating      = &Error{Kind: KindDuplicateRating, Message: "a rating for this booking has already been submitted"}
	ErrRideNotCompleted     = &Error{Kind: KindRideNotCompleted, Message: "ride not completed yet"}
	ErrSubscriptionRequired = &Error{Kind: KindSubscriptionRequired, Message: "an active subscription is required"}
	ErrInvalidCredentials   = &Error{Kind: KindUnauthorized, Message: "invalid email or password"}
)

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotVerified(msg string) error {
	return &Error{Kind: KindNotVerified, Message: msg}
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// InvalidTransition reports a state machine precondition violation on entity.
func InvalidTransition(entity, from, to string) error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("%s is already %s, cannot move to %s", entity, from, to),
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// did not originate in the core.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
