package services

import (
	"context"
	"log"
	"math"

	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

const (
	restrictBelow = 2.0
	warnBelow     = 3.0
)

type TrustTier struct {
	AverageRating float64 `json:"average_rating"`
	IsWarned      bool    `json:"is_warned"`
	IsRestricted  bool    `json:"is_restricted"`
	Ratings       int     `json:"ratings"`
}

// EvaluateTrust derives the tier from a full rating history. It keeps no
// state, so the same scores always give the same tier.
func EvaluateTrust(scores []int) TrustTier {
	if len(scores) == 0 {
		return TrustTier{}
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := math.Round(float64(sum)/float64(len(scores))*100) / 100

	t := TrustTier{AverageRating: avg, Ratings: len(scores)}
	switch {
	case avg < restrictBelow:
		t.IsRestricted = true
		t.IsWarned = true
	case avg < warnBelow:
		t.IsWarned = true
	}
	return t
}

type TrustEvaluator struct {
	users   repositories.UserStore
	ratings repositories.RatingStore
	deps    Deps
}

func NewTrustEvaluator(users repositories.UserStore, ratings repositories.RatingStore, deps Deps) *TrustEvaluator {
	return &TrustEvaluator{users: users, ratings: ratings, deps: deps.withDefaults()}
}

// Evaluate recomputes userID's tier from scratch and stores it. The user is
// told when they newly become warned or restricted. The comparison uses the
// flags read under the user's lock, so two evaluations racing for the same
// user cannot both announce the change or leave a stale tier behind.
func (e *TrustEvaluator) Evaluate(ctx context.Context, userID uuid.UUID) (TrustTier, error) {
	var tier TrustTier
	previous, _, err := e.users.RecomputeTrust(ctx, userID, func(scores []int) repositories.TrustFlags {
		tier = EvaluateTrust(scores)
		return repositories.TrustFlags{
			AverageRating: tier.AverageRating,
			IsWarned:      tier.IsWarned,
			IsRestricted:  tier.IsRestricted,
		}
	})
	if err != nil {
		return TrustTier{}, err
	}

	switch {
	case tier.IsRestricted && !previous.IsRestricted:
		log.Printf("⚠️ User %s restricted, average rating %.2f", userID, tier.AverageRating)
		e.deps.Notifier.Notify(ctx, userID,
			"Account Restricted 🚫",
			"Your account is temporarily restricted due to very low rating.",
			map[string]string{"type": "account_restricted"},
		)
	case tier.IsWarned && !tier.IsRestricted && !previous.IsWarned:
		log.Printf("⚠️ User %s warned, average rating %.2f", userID, tier.AverageRating)
		e.deps.Notifier.Notify(ctx, userID,
			"Account Warning ⚠️",
			"Your rating has fallen below 3. Please improve your behavior.",
			map[string]string{"type": "account_warning"},
		)
	}
	return tier, nil
}

// Inspect reports the stored tier without recomputing it.
func (e *TrustEvaluator) Inspect(ctx context.Context, userID uuid.UUID) (TrustTier, error) {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return TrustTier{}, err
	}
	scores, err := e.ratings.ListScoresForReviewee(ctx, userID)
	if err != nil {
		return TrustTier{}, err
	}
	return tierOf(user, len(scores)), nil
}

func tierOf(u *models.User, ratings int) TrustTier {
	return TrustTier{
		AverageRating: u.AverageRating,
		IsWarned:      u.IsWarned,
		IsRestricted:  u.IsRestricted,
		Ratings:       ratings,
	}
}
