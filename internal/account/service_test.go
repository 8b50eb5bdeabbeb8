package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/shopease-backend/internal/auth"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	byID    map[string]*User
	byEmail map[string]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

func (f *fakeStore) Insert(ctx context.Context, u *User) error {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeStore) Addresses(ctx context.Context, userID string) ([]*Address, error) {
	return nil, nil
}

func newTestAccountService() (*Service, *fakeStore) {
	store := newFakeStore()
	tokens := auth.NewTokenService("test-secret-key-at-least-32-chars!!", 24*time.Hour)
	return NewService(store, tokens, nil), store
}

func TestSignup_CreatesCustomer(t *testing.T) {
	service, store := newTestAccountService()

	user, err := service.Signup(context.Background(), "John", "Doe", "john@example.com", "password123", "+1234567890")

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, RoleCustomer, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, auth.CheckPassword("password123", user.PasswordHash))
	assert.Contains(t, store.byEmail, "john@example.com")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	service, store := newTestAccountService()
	ctx := context.Background()

	_, err := service.Signup(ctx, "John", "Doe", "john@example.com", "password123", "")
	require.NoError(t, err)

	_, err = service.Signup(ctx, "Jane", "Doe", "john@example.com", "different456", "")

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, store.byID, 1)
}

// racingStore simulates a concurrent signup winning between the email check
// and the insert: the lookup finds nothing but the insert hits the unique
// constraint.
type racingStore struct {
	fakeStore
}

func (r *racingStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return nil, ErrNotFound
}

func (r *racingStore) Insert(ctx context.Context, u *User) error {
	return ErrEmailTaken
}

func TestSignup_ConcurrentDuplicateEmail(t *testing.T) {
	store := &racingStore{fakeStore: *newFakeStore()}
	tokens := auth.NewTokenService("test-secret-key-at-least-32-chars!!", 24*time.Hour)
	service := NewService(store, tokens, nil)

	_, err := service.Signup(context.Background(), "Jane", "Doe", "john@example.com", "password456", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert user: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}

func TestSignup_ShortPassword(t *testing.T) {
	service, _ := newTestAccountService()

	_, err := service.Signup(context.Background(), "John", "Doe", "john@example.com", "12345", "")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestLogin_Success(t *testing.T) {
	service, _ := newTestAccountService()
	ctx := context.Background()

	created, err := service.Signup(ctx, "John", "Doe", "john@example.com", "password123", "")
	require.NoError(t, err)

	user, token, err := service.Login(ctx, "john@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	require.NotEmpty(t, token)

	// The issued token carries the account's identity
	tokens := auth.NewTokenService("test-secret-key-at-least-32-chars!!", 24*time.Hour)
	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "john@example.com", claims.Subject)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	service, _ := newTestAccountService()
	ctx := context.Background()

	_, err := service.Signup(ctx, "John", "Doe", "john@example.com", "password123", "")
	require.NoError(t, err)

	_, _, err = service.Login(ctx, "john@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	service, _ := newTestAccountService()

	_, _, err := service.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveAccount(t *testing.T) {
	service, store := newTestAccountService()
	ctx := context.Background()

	user, err := service.Signup(ctx, "John", "Doe", "john@example.com", "password123", "")
	require.NoError(t, err)
	store.byEmail[user.Email].IsActive = false

	_, _, err = service.Login(ctx, "john@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
