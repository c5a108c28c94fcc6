// Package handlers provides HTTP request handlers for the authentication API.
package handlers

import (
	"context"

	"github.com/yasinhessnawi1/authflow/internal/models"
	"github.com/yasinhessnawi1/authflow/internal/service"
)

// AuthServiceInterface defines the methods required from the authentication service.
// This interface is used by the auth handlers to interact with the authentication business logic
// without being tightly coupled to the implementation.
type AuthServiceInterface interface {
	// Register creates an account and opens its first session.
	//
	// Returns:
	//   - The session token, its expiry and the created user
	//   - A duplicate error if the email is already registered
	Register(ctx context.Context, name, email, password string) (*service.AuthResult, error)

	// Login verifies credentials and opens a session.
	//
	// Returns:
	//   - The session token, its expiry and the user
	//   - An invalid credentials error for both unknown emails and wrong passwords
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)

	// Logout revokes the session with the given id. An empty id is a no-op.
	Logout(ctx context.Context, sessionID string) error

	// GetCurrentUser returns the user behind an authenticated request.
	GetCurrentUser(ctx context.Context, userID string) (*models.User, error)

	// ForgotPassword stores a reset secret and mails the reset link.
	ForgotPassword(ctx context.Context, email string) (*models.ForgotPasswordResult, error)

	// ResetPassword consumes a reset secret and opens a new session.
	ResetPassword(ctx context.Context, secret, newPassword string) (*service.AuthResult, error)

	// DirectResetPassword resets the password for email when secret matches
	// the pending reset of that account.
	DirectResetPassword(ctx context.Context, email, secret, newPassword string) (*models.User, error)

	// CheckUserExists reports whether an account uses email.
	CheckUserExists(ctx context.Context, email string) (bool, error)
}

var _ AuthServiceInterface = (*service.AuthService)(nil)
