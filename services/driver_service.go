package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

type DriverProfileInput struct {
	NationalID    string
	DriverLicense string
	CarModel      string
	PlateNumber   string
	Seats         int
}

type DriverService struct {
	store repositories.Store
	deps  Deps
}

func NewDriverService(store repositories.Store, deps Deps) *DriverService {
	return &DriverService{store: store, deps: deps.withDefaults()}
}

// SaveProfile creates or replaces the actor's documents. Any change sends the
// profile back to pending review.
func (s *DriverService) SaveProfile(ctx context.Context, actor *models.User, in DriverProfileInput) (*models.DriverProfile, error) {
	if !actor.IsDriver() {
		return nil, apperrors.Forbidden("only drivers can submit driver documents")
	}

	profile, err := s.store.GetDriverProfile(ctx, actor.ID)
	if errors.Is(err, apperrors.ErrProfileNotFound) {
		profile = &models.DriverProfile{UserID: actor.ID}
	} else if err != nil {
		return nil, err
	}

	profile.NationalID = strings.TrimSpace(in.NationalID)
	profile.DriverLicense = strings.TrimSpace(in.DriverLicense)
	profile.CarModel = strings.TrimSpace(in.CarModel)
	profile.PlateNumber = strings.ToUpper(strings.TrimSpace(in.PlateNumber))
	profile.Seats = in.Seats
	if profile.Seats <= 0 {
		profile.Seats = 4
	}
	profile.IsVerified = false
	profile.VerificationStatus = models.VerificationPending
	profile.VerificationNotes = nil

	if err := s.store.SaveDriverProfile(ctx, profile); err != nil {
		return nil, err
	}
	log.Printf("✅ Driver profile submitted for %s", actor.ID)
	return profile, nil
}

func (s *DriverService) Profile(ctx context.Context, userID uuid.UUID) (*models.DriverProfile, error) {
	return s.store.GetDriverProfile(ctx, userID)
}

// PendingQueue is the admin verification queue, oldest submission first.
func (s *DriverService) PendingQueue(ctx context.Context, admin *models.User) ([]models.DriverProfile, error) {
	if !admin.HasOverride() {
		return nil, apperrors.Forbidden("admin access required")
	}
	return s.store.ListDriverProfiles(ctx, models.VerificationPending)
}

// Verify records an admin's decision on a driver's documents.
func (s *DriverService) Verify(ctx context.Context, admin *models.User, driverID uuid.UUID, approved bool, notes string) (*models.DriverProfile, error) {
	if !admin.HasOverride() {
		return nil, apperrors.Forbidden("admin access required")
	}
	profile, err := s.store.GetDriverProfile(ctx, driverID)
	if err != nil {
		return nil, err
	}

	notes = strings.TrimSpace(notes)
	profile.IsVerified = approved
	profile.VerificationStatus = models.VerificationRejected
	if approved {
		profile.VerificationStatus = models.VerificationApproved
	}
	profile.VerificationNotes = nil
	if notes != "" {
		profile.VerificationNotes = &notes
	}
	if err := s.store.SaveDriverProfile(ctx, profile); err != nil {
		return nil, err
	}
	log.Printf("✅ Driver %s %s by %s", driverID, profile.VerificationStatus, admin.ID)

	if approved {
		s.deps.Notifier.Notify(ctx, driverID,
			"Documents Approved! ✅",
			"Your driver documents have been approved. You can now create rides!",
			map[string]string{"type": "verification_approved"},
		)
	} else {
		s.deps.Notifier.Notify(ctx, driverID,
			"Documents Rejected",
			"Your documents were rejected. Reason: "+notes,
			map[string]string{"type": "verification_rejected"},
		)
	}
	return profile, nil
}
