package auth

import (
	"time"

	"github.com/yasinhessnawi1/authflow/internal/config"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	// GenerateToken returns the signed token, its jti and its expiry
	GenerateToken(userID, email string) (string, string, time.Time, error)
}

// JWTValidator defines the interface for session token validation
type JWTValidator interface {
	// ValidateToken validates a token and returns its claims if valid
	ValidateToken(tokenString string) (*UserClaims, error)

	// GetConfig returns the JWT settings configuration
	GetConfig() *config.JWTSettings
}

// TokenManager issues and validates session tokens.
type TokenManager interface {
	TokenIssuer
	JWTValidator
}

var _ TokenManager = (*JWTService)(nil)
