// Package service implements the authentication use cases on top of the
// repositories, the token service and the mail transport.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/auth"
	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/database"
	"github.com/yasinhessnawi1/authflow/internal/metrics"
	"github.com/yasinhessnawi1/authflow/internal/models"
	"github.com/yasinhessnawi1/authflow/internal/repository"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, string, error)
	VerifyPassword(password, encodedHash, encodedSalt string) (bool, error)
	BurnVerify(password string)
}

// ResetMailer delivers reset links.
type ResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetURL string) error
	LogsOnly() bool
}

// AuthResult is an issued session together with its user.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tx          database.Transactor
	tokens      auth.TokenManager
	hasher      PasswordHasher
	mailer      ResetMailer
	cfg         config.AuthSettings
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tx database.Transactor,
	tokens auth.TokenManager,
	hasher PasswordHasher,
	mailer ResetMailer,
	cfg config.AuthSettings,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tx:          tx,
		tokens:      tokens,
		hasher:      hasher,
		mailer:      mailer,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = utils.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.NewValidationError("name", "This field is required")
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		utils.LogAuth(metrics.EventRegister, "", email, false, "email taken")
		metrics.RecordAuthEvent(metrics.EventRegister, false)
		return nil, utils.NewDuplicateError(constants.MsgUserExists)
	}

	passwordHash, salt, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(name, email)
	user.PasswordHash = passwordHash
	user.Salt = salt

	// A concurrent registration can still win the unique index
	if err := s.userRepo.Create(ctx, user); err != nil {
		if utils.IsDuplicateError(err) {
			metrics.RecordAuthEvent(metrics.EventRegister, false)
			return nil, utils.NewDuplicateError(constants.MsgUserExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	utils.LogAuth(metrics.EventRegister, user.ID, user.Email, true, "")
	metrics.RecordAuthEvent(metrics.EventRegister, true)

	return result, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, utils.NewBadRequestError(constants.MsgMissingCredentials)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			s.hasher.BurnVerify(password)
			utils.LogAuth(metrics.EventLogin, "", email, false, "user not found")
			metrics.RecordAuthEvent(metrics.EventLogin, false)
			return nil, utils.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := s.hasher.VerifyPassword(password, user.PasswordHash, user.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth(metrics.EventLogin, user.ID, email, false, "invalid password")
		metrics.RecordAuthEvent(metrics.EventLogin, false)
		return nil, utils.NewInvalidCredentialsError()
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	utils.LogAuth(metrics.EventLogin, user.ID, email, true, "")
	metrics.RecordAuthEvent(metrics.EventLogin, true)

	return result, nil
}

// Logout revokes a session. An empty session id is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.Revoke(ctx, sessionID, s.now()); err != nil {
		metrics.RecordAuthEvent(metrics.EventLogout, false)
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	metrics.RecordAuthEvent(metrics.EventLogout, true)
	return nil
}

// ResolveSession implements auth.SessionResolver. The token must verify, its
// session row must be live and its user must still exist.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		metrics.RecordAuthEvent(metrics.EventSessionCheck, false)
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, claims.ID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			metrics.RecordAuthEvent(metrics.EventSessionCheck, false)
			return nil, utils.NewUnauthorizedError("")
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now()
	if session.IsRevoked() || !now.Before(session.ExpiresAt) || session.UserID != claims.UserID() {
		log.Debug().
			Str(constants.SessionIDContextKey, session.ID).
			Bool("revoked", session.IsRevoked()).
			Msg("Rejected inactive session")
		metrics.RecordAuthEvent(metrics.EventSessionCheck, false)
		return nil, utils.NewUnauthorizedError("")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID())
	if err != nil {
		if utils.IsNotFoundError(err) {
			metrics.RecordAuthEvent(metrics.EventSessionCheck, false)
			return nil, utils.NewUnauthorizedError(constants.MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	return &auth.Identity{UserID: user.ID, Email: user.Email, SessionID: session.ID}, nil
}

// GetCurrentUser returns the stored user for an authenticated request.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ForgotPassword stores a new reset secret for the account and mails the
// reset link. An unknown email yields a generic success unless the service
// is configured to reveal it.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*models.ForgotPasswordResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, utils.NewBadRequestError(constants.MsgProvideEmail)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth(metrics.EventForgotPassword, "", email, false, "user not found")
			metrics.RecordAuthEvent(metrics.EventForgotPassword, false)
			if s.cfg.RevealUnknownEmail {
				return nil, utils.NewNotFoundError(constants.MsgNoUserWithEmail)
			}
			return &models.ForgotPasswordResult{Delivered: false}, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	secret, secretHash, err := auth.GenerateResetSecret()
	if err != nil {
		return nil, err
	}

	// Overwrites any earlier secret
	expire := s.now().Add(s.resetExpiry())
	if err := s.userRepo.SetResetToken(ctx, user.ID, secretHash, expire); err != nil {
		return nil, fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := s.cfg.ClientURL + constants.ResetPasswordClientPath + secret
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, resetURL); err != nil {
		if clearErr := s.userRepo.ClearResetToken(context.WithoutCancel(ctx), user.ID); clearErr != nil {
			log.Error().Err(clearErr).Str(constants.UserIDContextKey, user.ID).Msg("Failed to clear reset token after send failure")
		}
		metrics.RecordAuthEvent(metrics.EventForgotPassword, false)
		return nil, utils.NewUpstreamError(constants.MsgEmailNotSent, err)
	}

	utils.LogAuth(metrics.EventForgotPassword, user.ID, email, true, "")
	metrics.RecordAuthEvent(metrics.EventForgotPassword, true)

	return &models.ForgotPasswordResult{Delivered: true, Logged: s.mailer.LogsOnly()}, nil
}

// ResetPassword consumes a reset secret, replaces the password, revokes the
// user's sessions and opens a new one.
func (s *AuthService) ResetPassword(ctx context.Context, secret, newPassword string) (*AuthResult, error) {
	if secret == "" {
		return nil, utils.NewInvalidTokenError()
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	secretHash := auth.HashResetSecret(secret)
	user, err := s.userRepo.GetByResetTokenHash(ctx, secretHash, s.now())
	if err != nil {
		metrics.RecordAuthEvent(metrics.EventResetPassword, false)
		return nil, err
	}

	if err := s.completeReset(ctx, user, secretHash, newPassword); err != nil {
		metrics.RecordAuthEvent(metrics.EventResetPassword, false)
		return nil, err
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	utils.LogAuth(metrics.EventResetPassword, user.ID, user.Email, true, "")
	metrics.RecordAuthEvent(metrics.EventResetPassword, true)

	return result, nil
}

// DirectResetPassword resets the password of the account behind email. The
// caller proves ownership with the emailed reset secret; no session is opened.
func (s *AuthService) DirectResetPassword(ctx context.Context, email, secret, newPassword string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || secret == "" || newPassword == "" {
		return nil, utils.NewBadRequestError(constants.MsgDirectResetFields)
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			metrics.RecordAuthEvent(metrics.EventDirectReset, false)
			if s.cfg.RevealUnknownEmail {
				return nil, utils.NewNotFoundError(constants.MsgNoUserWithEmail)
			}
			return nil, utils.NewInvalidTokenError()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPendingReset(s.now()) || !auth.MatchResetSecret(secret, *user.ResetPasswordToken) {
		utils.LogAuth(metrics.EventDirectReset, user.ID, email, false, "invalid reset token")
		metrics.RecordAuthEvent(metrics.EventDirectReset, false)
		return nil, utils.NewInvalidTokenError()
	}

	if err := s.completeReset(ctx, user, *user.ResetPasswordToken, newPassword); err != nil {
		metrics.RecordAuthEvent(metrics.EventDirectReset, false)
		return nil, err
	}

	utils.LogAuth(metrics.EventDirectReset, user.ID, email, true, "")
	metrics.RecordAuthEvent(metrics.EventDirectReset, true)

	return user, nil
}

// CheckUserExists reports whether an account uses email.
func (s *AuthService) CheckUserExists(ctx context.Context, email string) (bool, error) {
	if s.cfg.DisableCheckUser {
		return false, utils.NewNotFoundError(constants.MsgCheckUserDisabled)
	}

	email = utils.NormalizeEmail(email)
	if email == "" {
		return false, utils.NewBadRequestError(constants.MsgProvideEmail)
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// CleanupExpired deletes expired sessions and clears expired reset secrets.
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, int64, error) {
	now := s.now()

	sessions, err := s.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	metrics.RecordCleanup("sessions", sessions)

	tokens, err := s.userRepo.DeleteExpiredResetTokens(ctx, now)
	if err != nil {
		return sessions, 0, err
	}
	metrics.RecordCleanup("reset_tokens", tokens)

	return sessions, tokens, nil
}

// completeReset replaces the password, clears the reset fields and revokes
// every session of the user in one transaction.
func (s *AuthService) completeReset(ctx context.Context, user *models.User, secretHash, newPassword string) error {
	passwordHash, salt, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	err = s.tx.Transaction(ctx, func(tx *sql.Tx) error {
		if err := s.userRepo.UpdatePasswordTx(ctx, tx, user.ID, secretHash, passwordHash, salt, now); err != nil {
			return err
		}
		_, err := s.sessionRepo.RevokeAllForUserTx(ctx, tx, user.ID, now)
		return err
	})
	if err != nil {
		return err
	}

	user.PasswordHash = passwordHash
	user.Salt = salt
	user.ResetPasswordToken = nil
	user.ResetPasswordExpire = nil
	user.UpdatedAt = now

	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, jti, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.sessionRepo.Create(ctx, models.NewSession(jti, user.ID, expiresAt)); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) resetExpiry() time.Duration {
	if s.cfg.ResetTokenExpiry > 0 {
		return s.cfg.ResetTokenExpiry
	}
	return constants.DefaultResetTokenExpiry
}
