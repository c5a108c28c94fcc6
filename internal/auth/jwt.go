package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// JWT errors
var (
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	ErrInvalidTokenClaims   = errors.New("invalid token claims")
)

// UserClaims represents the claims in a session token. The subject is the
// user id and the ID (jti) names the server-side session row.
type UserClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *UserClaims) UserID() string {
	return c.Subject
}

// JWTService provides session token generation and validation
type JWTService struct {
	Config *config.JWTSettings
}

// NewJWTService creates a new JWTService instance
func NewJWTService(cfg *config.JWTSettings) *JWTService {
	return &JWTService{
		Config: cfg,
	}
}

// GetConfig returns the JWT settings, falling back to defaults
func (s *JWTService) GetConfig() *config.JWTSettings {
	if s.Config == nil {
		return &config.JWTSettings{
			Expiry: constants.DefaultJWTExpiry,
			Issuer: constants.DefaultJWTIssuer,
		}
	}
	return s.Config
}

// GenerateToken signs a session token for a user. It returns the token, its
// jti and its expiry so the caller can record the session.
func (s *JWTService) GenerateToken(userID, email string) (string, string, time.Time, error) {
	cfg := s.GetConfig()
	if cfg.Secret == "" {
		return "", "", time.Time{}, errors.New("jwt secret is not configured")
	}

	jwtID := uuid.New().String()

	now := time.Now().UTC()
	expiresAt := now.Add(cfg.Expiry)
	claims := UserClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jwtID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	// NumericDate truncates to seconds
	return tokenString, jwtID, claims.ExpiresAt.Time, nil
}

// ValidateToken verifies the signature, expiry and issuer of a session token
// and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*UserClaims, error) {
	cfg := s.GetConfig()

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(cfg.Secret), nil
	})

	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, utils.NewExpiredTokenError()
		}
		return nil, sessionTokenError()
	}

	if !token.Valid {
		return nil, sessionTokenError()
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, sessionTokenError()
	}

	if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
		return nil, sessionTokenError()
	}

	return claims, nil
}

// sessionTokenError is the 401 returned for any unverifiable session token.
func sessionTokenError() *utils.AppError {
	appErr := utils.NewUnauthorizedError("")
	appErr.Err = fmt.Errorf("%w: %w", utils.ErrUnauthorized, utils.ErrInvalidToken)
	return appErr
}
