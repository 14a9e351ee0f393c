package services

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

const maxMessageLength = 2000

// ChatPush is what a member's live session receives for a new message.
type ChatPush struct {
	Type    string         `json:"type"`
	Message models.Message `json:"message"`
}

type ChatService struct {
	store repositories.Store
	deps  Deps
}

func NewChatService(store repositories.Store, deps Deps) *ChatService {
	return &ChatService{store: store, deps: deps.withDefaults()}
}

// OpenRoom returns the booking's chat room, creating it on first use. Only
// the booking's passenger and the ride's driver may open it.
func (s *ChatService) OpenRoom(ctx context.Context, actor *models.User, bookingID uuid.UUID) (*models.ChatRoom, bool, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	if actor.ID != booking.PassengerID && actor.ID != booking.Ride.DriverID {
		return nil, false, apperrors.Forbidden("you are not part of this booking")
	}

	room := &models.ChatRoom{
		BookingID:   booking.ID,
		DriverID:    booking.Ride.DriverID,
		PassengerID: booking.PassengerID,
	}
	created, err := s.store.GetOrCreateChatRoom(ctx, room)
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Printf("✅ Chat room %s opened for booking %s", room.ID, booking.ID)
	}
	room.Booking = booking
	return room, created, nil
}

func (s *ChatService) Rooms(ctx context.Context, actor *models.User) ([]models.ChatRoom, error) {
	return s.store.ListChatRooms(ctx, actor.ID)
}

func (s *ChatService) memberRoom(ctx context.Context, actor *models.User, roomID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.store.GetChatRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(actor.ID) {
		return nil, apperrors.Forbidden("you are not part of this chat room")
	}
	return room, nil
}

func (s *ChatService) Messages(ctx context.Context, actor *models.User, roomID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if _, err := s.memberRoom(ctx, actor, roomID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, roomID, limit, offset)
}

// Send stores the message and pushes it to the other member if they are
// connected. The stored message is the record; the push may be missed.
func (s *ChatService) Send(ctx context.Context, actor *models.User, roomID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, apperrors.Validation("message content is required")
	case utf8.RuneCountInString(content) > maxMessageLength:
		return nil, apperrors.Validation("message is too long")
	}
	room, err := s.memberRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{ChatRoomID: room.ID, SenderID: actor.ID, Content: content}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.deps.Live.PushLive(ctx, room.Counterparty(actor.ID), ChatPush{Type: "chat_message", Message: *msg})
	return msg, nil
}

func (s *ChatService) MarkRead(ctx context.Context, actor *models.User, roomID uuid.UUID) (int64, error) {
	if _, err := s.memberRoom(ctx, actor, roomID); err != nil {
		return 0, err
	}
	return s.store.MarkMessagesRead(ctx, roomID, actor.ID)
}
