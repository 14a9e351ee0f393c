package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
	Role     models.Role
}

type AccountService struct {
	users     repositories.UserStore
	subs      *SubscriptionService
	jwtSecret []byte
	now       func() time.Time
}

func NewAccountService(users repositories.UserStore, subs *SubscriptionService, jwtSecret string) *AccountService {
	return &AccountService{users: users, subs: subs, jwtSecret: []byte(jwtSecret), now: time.Now}
}

// Register creates a passenger or driver account and starts its trial.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RolePassenger
	}
	if in.Role != models.RolePassenger && in.Role != models.RoleDriver {
		return nil, apperrors.Validation("role must be passenger or driver")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
		Password: string(hashed),
		Role:     in.Role,
		IsActive: true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if _, err := s.subs.StartTrial(ctx, user); err != nil {
		log.Printf("🔥 Failed to start trial for %s: %v", user.ID, err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed token for the account.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, apperrors.Forbidden("account is disabled")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AccountService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"exp":     s.now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetUser(ctx, id)
}
