package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"wemoney/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// UserStorage is the slice of persistence the authenticator needs.
type UserStorage interface {
	CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

// PasswordAuthenticator implements password sign-up and sign-in using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
}

func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{storage: storage}
}

// ValidateCredential checks that a password meets the minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, credential string) (core.User, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return core.User{}, err
	}

	if _, err := a.storage.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, ErrEmailExists
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.storage.CreateUser(ctx, email, string(hashed))
	if err != nil {
		return core.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (core.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}
