package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

type SubscriptionStatus struct {
	*models.Subscription
	Entitled      bool `json:"entitled"`
	DaysRemaining int  `json:"days_remaining"`
}

type SubscriptionService struct {
	store      repositories.SubscriptionStore
	now        func() time.Time
	trialDays  int
	periodDays int
}

func NewSubscriptionService(store repositories.SubscriptionStore, trialDays, periodDays int, now func() time.Time) *SubscriptionService {
	if now == nil {
		now = time.Now
	}
	return &SubscriptionService{store: store, now: now, trialDays: trialDays, periodDays: periodDays}
}

// StartTrial gives a new account its free trial.
func (s *SubscriptionService) StartTrial(ctx context.Context, user *models.User) (*models.Subscription, error) {
	today := models.Day(s.now())
	sub := &models.Subscription{
		UserID:     user.ID,
		PlanType:   models.PlanFor(user.Role),
		StartDate:  today,
		ExpiryDate: today.AddDate(0, 0, s.trialDays),
		IsActive:   true,
		IsTrial:    true,
		AutoRenew:  true,
	}
	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) Status(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error) {
	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &SubscriptionStatus{
		Subscription:  sub,
		Entitled:      sub.Entitled(now),
		DaysRemaining: sub.DaysRemaining(now),
	}, nil
}

// Entitled reports whether user may search and book. Staff accounts always may.
func (s *SubscriptionService) Entitled(ctx context.Context, user *models.User) (bool, error) {
	if user.HasOverride() {
		return true, nil
	}
	sub, err := s.store.GetSubscription(ctx, user.ID)
	if errors.Is(err, apperrors.ErrSubscriptionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Entitled(s.now()), nil
}

// Renew extends the subscription by one paid period counted from the later
// of today and the current expiry.
func (s *SubscriptionService) Renew(ctx context.Context, user *models.User, paymentConfirmed bool) (*SubscriptionStatus, error) {
	if !paymentConfirmed {
		return nil, apperrors.ErrPaymentRequired
	}
	today := models.Day(s.now())

	sub, err := s.store.GetSubscription(ctx, user.ID)
	switch {
	case errors.Is(err, apperrors.ErrSubscriptionNotFound):
		sub = &models.Subscription{
			UserID:     user.ID,
			PlanType:   models.PlanFor(user.Role),
			StartDate:  today,
			ExpiryDate: today,
		}
	case err != nil:
		return nil, err
	}

	from := models.Day(sub.ExpiryDate)
	if from.Before(today) {
		from = today
	}
	sub.ExpiryDate = from.AddDate(0, 0, s.periodDays)
	sub.IsActive = true
	sub.IsTrial = false
	sub.AutoRenew = true

	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}
	log.Printf("✅ Subscription for %s renewed until %s", user.ID, sub.ExpiryDate.Format("2006-01-02"))
	return s.Status(ctx, user.ID)
}

// ExpireDue switches off every subscription whose expiry date has passed.
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int64, error) {
	return s.store.DeactivateExpiredSubscriptions(ctx, s.now())
}
