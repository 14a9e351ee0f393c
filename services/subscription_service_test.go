package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
)

func TestSubscription_TrialRenewExpire(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "rider", models.RolePassenger)

	sub, err := env.subs.StartTrial(ctx, user)
	if err != nil {
		t.Fatalf("start trial: %v", err)
	}
	if !sub.IsTrial || sub.PlanType != models.PlanPassenger {
		t.Fatalf("unexpected trial %+v", sub)
	}
	if want := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC); !sub.ExpiryDate.Equal(want) {
		t.Fatalf("expected trial to end %s, got %s", want, sub.ExpiryDate)
	}

	status, err := env.subs.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Entitled || status.DaysRemaining != 30 {
		t.Fatalf("expected 30 entitled days, got %+v", status)
	}

	// Renewing early stacks on top of the remaining trial.
	if _, err := env.subs.Renew(ctx, user, false); !errors.Is(err, apperrors.ErrPaymentRequired) {
		t.Fatalf("expected payment required, got %v", err)
	}
	status, err = env.subs.Renew(ctx, user, true)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if status.IsTrial || status.DaysRemaining != 60 {
		t.Fatalf("expected 60 paid days, got trial=%v days=%d", status.IsTrial, status.DaysRemaining)
	}

	env.now = env.now.AddDate(0, 0, 61)
	if ok, _ := env.subs.Entitled(ctx, user); ok {
		t.Fatalf("expected entitlement to lapse")
	}
	n, err := env.subs.ExpireDue(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one expired subscription, got %d (%v)", n, err)
	}
	status, _ = env.subs.Status(ctx, user.ID)
	if status.IsActive {
		t.Fatalf("expected subscription switched off")
	}

	// A lapsed subscription renews from today.
	status, err = env.subs.Renew(ctx, user, true)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if !status.Entitled || status.DaysRemaining != 30 {
		t.Fatalf("expected fresh 30 days, got %+v", status)
	}
}

func TestSubscription_Entitlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stranger := env.user(t, "nosub", models.RolePassenger)
	if ok, err := env.subs.Entitled(ctx, stranger); ok || err != nil {
		t.Fatalf("expected no entitlement without subscription, got %v (%v)", ok, err)
	}
	admin := env.user(t, "admin", models.RoleAdmin)
	admin.IsStaff = true
	if ok, _ := env.subs.Entitled(ctx, admin); !ok {
		t.Fatalf("expected staff to be entitled")
	}
	driver := env.user(t, "driver", models.RoleDriver)
	if _, err := env.subs.Renew(ctx, driver, true); err != nil {
		t.Fatalf("renew without trial: %v", err)
	}
	status, _ := env.subs.Status(ctx, driver.ID)
	if status.PlanType != models.PlanDriver || !status.Entitled {
		t.Fatalf("expected entitled driver plan, got %+v", status)
	}
}
