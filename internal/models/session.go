// Package models provides the data structures persisted and exchanged by the
// authentication service.
//
// A Session is the server-side record of an issued session token. Its ID is
// the token's jti claim, so a token is only honoured while its row exists,
// is unrevoked and is unexpired.
package models

import (
	"time"

	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// Session represents an issued session token.
type Session struct {
	// ID is the jti of the session token
	ID string `json:"id" db:"session_id"`

	// UserID references the user who owns this session
	UserID string `json:"user_id" db:"user_id"`

	// ExpiresAt matches the exp claim of the token
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	// RevokedAt is set on logout or password reset
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the Session model.
func (s *Session) TableName() string {
	return constants.TableSessions
}

// NewSession creates a Session for an issued token.
func NewSession(id, userID string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return !time.Now().Before(s.ExpiresAt)
}

// IsRevoked reports whether the session was explicitly invalidated.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsActive reports whether the session may still authenticate requests.
func (s *Session) IsActive() bool {
	return !s.IsRevoked() && !s.IsExpired()
}
