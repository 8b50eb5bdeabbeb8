package account

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/shopease-backend/internal/auth"
	"github.com/example/shopease-backend/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store is the persistence contract for accounts
type Store interface {
	Insert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Exists(ctx context.Context, id string) (bool, error)
	Addresses(ctx context.Context, userID string) ([]*Address, error)
}

// Service handles signup, login and profile reads
type Service struct {
	store    Store
	tokens   *auth.TokenService
	producer *kafka.Producer
}

func NewService(store Store, tokens *auth.TokenService, producer *kafka.Producer) *Service {
	return &Service{store: store, tokens: tokens, producer: producer}
}

// Signup creates a customer account. A duplicate email fails with
// ErrEmailTaken before any write happens.
func (s *Service) Signup(ctx context.Context, firstName, lastName, email, password, phoneNumber string) (*User, error) {
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &User{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  phoneNumber,
		Role:         RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Insert(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[Account] User registered: %s", user.Email)

	s.producer.Publish(ctx, user.ID, kafka.ActivityEvent{
		Type:   kafka.EventUserSignedUp,
		UserID: user.ID,
	})
	return user, nil
}

// Login checks credentials against the active account for the email and
// issues a session token. Wrong email and wrong password produce the same
// error.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetByID returns the account for profile views
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// Addresses returns the user's saved addresses
func (s *Service) Addresses(ctx context.Context, userID string) ([]*Address, error) {
	return s.store.Addresses(ctx, userID)
}
