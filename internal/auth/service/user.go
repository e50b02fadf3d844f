package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/cryptox"
	"github.com/tanglebay/doorman/pkg/idx"
)

var (
	ErrEmailTaken   = errors.New("email already in use")
	ErrInvalidEmail = errors.New("invalid email")
)

type UserService struct {
	Store store.Store
}

// ValidateEmail applies the same minimal shape check everywhere an email is
// accepted: one @ with something on both sides, a dot in the domain, and a
// sane length.
func ValidateEmail(email string) error {
	if len(email) == 0 || len(email) > 255 {
		return ErrInvalidEmail
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	domainPart := email[at+1:]
	if strings.Contains(domainPart, "@") || !strings.Contains(domainPart, ".") {
		return ErrInvalidEmail
	}
	if strings.HasPrefix(domainPart, ".") || strings.HasSuffix(domainPart, ".") {
		return ErrInvalidEmail
	}
	return nil
}

// CreateUser registers a new account with an argon2 password hash. The email
// starts unverified.
func (s *UserService) CreateUser(ctx context.Context, email, username, password string) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail looks a user up for login and password reset flows.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, email)
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID idx.ID) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// DeleteUser removes the account. Sessions, credentials and codes follow via
// schema cascade.
func (s *UserService) DeleteUser(ctx context.Context, userID idx.ID) error {
	return s.Store.Users().DeleteUser(ctx, userID)
}

// StartEmailChange drops the account back to unverified ahead of an address
// change. The stored address only switches once the new one is verified, so
// a failed change leaves the old address intact (but unverified).
func (s *UserService) StartEmailChange(ctx context.Context, userID idx.ID, newEmail string) error {
	existing, err := s.Store.Users().GetUserByEmail(ctx, newEmail)
	if err == nil && existing.ID != userID {
		return ErrEmailTaken
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check email availability: %w", err)
	}

	if err := s.Store.Users().SetEmailUnverified(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear verified flag: %w", err)
	}
	return nil
}

// UpdatePassword rehashes and stores a new password for the user.
func (s *UserService) UpdatePassword(ctx context.Context, userID idx.ID, password string) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}
