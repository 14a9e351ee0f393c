package services

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/events"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

type RatingService struct {
	store repositories.Store
	trust *TrustEvaluator
	deps  Deps
}

func NewRatingService(store repositories.Store, trust *TrustEvaluator, deps Deps) *RatingService {
	return &RatingService{store: store, trust: trust, deps: deps.withDefaults()}
}

// Rate records reviewer's score for the counterparty of a completed booking
// and then re-evaluates the counterparty's trust tier. A failed evaluation is
// logged; the rating stands.
func (s *RatingService) Rate(ctx context.Context, reviewer *models.User, bookingID uuid.UUID, score int, comment string) (*models.Rating, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingCompleted {
		return nil, apperrors.ErrRideNotCompleted
	}

	if booking.PassengerID == booking.Ride.DriverID {
		return nil, apperrors.Forbidden("you cannot rate yourself")
	}

	var reviewee uuid.UUID
	switch reviewer.ID {
	case booking.PassengerID:
		reviewee = booking.Ride.DriverID
	case booking.Ride.DriverID:
		reviewee = booking.PassengerID
	default:
		return nil, apperrors.Forbidden("you can only rate rides you took part in")
	}
	if score < 1 || score > 5 {
		return nil, apperrors.ErrInvalidScore
	}

	rating := &models.Rating{
		BookingID:  booking.ID,
		ReviewerID: reviewer.ID,
		RevieweeID: reviewee,
		Score:      score,
		Comment:    strings.TrimSpace(comment),
	}
	if err := s.store.CreateRating(ctx, rating); err != nil {
		return nil, err
	}
	log.Printf("✅ Rating %d recorded for booking %s", score, booking.ID)
	s.deps.Events.Emit(events.RatingCreated, rating)

	if _, err := s.trust.Evaluate(ctx, reviewee); err != nil {
		log.Printf("🔥 Failed to evaluate trust for %s: %v", reviewee, err)
	}
	return rating, nil
}

type ReceivedRating struct {
	ID           uuid.UUID `json:"id"`
	Score        int       `json:"score"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewer_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type RatingsSummary struct {
	AverageRating float64          `json:"average_rating"`
	TotalRatings  int              `json:"total_ratings"`
	Ratings       []ReceivedRating `json:"ratings"`
}

// Received lists the ratings the actor has been given, newest first, with
// their plain average rounded to one decimal.
func (s *RatingService) Received(ctx context.Context, actor *models.User) (*RatingsSummary, error) {
	ratings, err := s.store.ListRatingsForReviewee(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	out := &RatingsSummary{TotalRatings: len(ratings), Ratings: make([]ReceivedRating, 0, len(ratings))}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
		rr := ReceivedRating{ID: r.ID, Score: r.Score, Comment: r.Comment, CreatedAt: r.CreatedAt}
		if r.Reviewer != nil {
			rr.ReviewerName = r.Reviewer.DisplayName()
		}
		out.Ratings = append(out.Ratings, rr)
	}
	if len(ratings) > 0 {
		out.AverageRating = math.Round(float64(sum)/float64(len(ratings))*10) / 10
	}
	return out, nil
}
