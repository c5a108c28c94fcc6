package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// User represents a registered account.
// Password material and the pending reset secret are never serialized.
type User struct {
	ID                  string     `json:"id" db:"user_id"`
	Name                string     `json:"name" db:"name"`
	Email               string     `json:"email" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Salt                string     `json:"-" db:"salt"`
	ResetPasswordToken  *string    `json:"-" db:"reset_password_token"`
	ResetPasswordExpire *time.Time `json:"-" db:"reset_password_expire"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}

// NewUser creates a User with a fresh id. The email must already be normalized.
// Password fields are populated by the caller.
func NewUser(name, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TableName returns the database table name for the User model.
func (u *User) TableName() string {
	return constants.TableUsers
}

// HasPendingReset reports whether a reset secret is stored and unexpired at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetPasswordToken != nil && u.ResetPasswordExpire != nil && now.Before(*u.ResetPasswordExpire)
}

// Public returns the fields a client may see.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Profile returns the fields served by the current-user endpoint.
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// PublicUser is the user shape returned alongside a session token.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserProfile is the user shape returned by the current-user endpoint.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest is the body of the register endpoint.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
}

// LoginRequest is the body of the login endpoint. Presence is checked by the
// handler so a missing field gets the combined message.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login and reset.
type AuthResponse struct {
	Success bool       `json:"success"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}
