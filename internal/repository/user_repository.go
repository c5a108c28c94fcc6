// Package repository provides data access interfaces and implementations for
// the authentication service. Queries are written with $N placeholders and
// rebound for the active driver, so every implementation runs on postgres,
// pgx and mysql.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/database"
	"github.com/yasinhessnawi1/authflow/internal/models"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// UserRepository defines methods for interacting with user accounts and
// their pending reset secrets.
type UserRepository interface {
	// Create inserts a new user. A taken email yields a DuplicateError.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by id, or a NotFoundError.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail retrieves a user by normalized email, or a NotFoundError.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ExistsByEmail reports whether an account uses the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// SetResetToken stores the hash of a reset secret and its expiry.
	SetResetToken(ctx context.Context, userID, tokenHash string, expire time.Time) error

	// ClearResetToken removes any pending reset secret.
	ClearResetToken(ctx context.Context, userID string) error

	// GetByResetTokenHash finds the user holding an unexpired reset secret.
	// Unknown or expired secrets yield an InvalidTokenError.
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)

	// UpdatePasswordTx replaces the password and consumes the reset secret.
	// It fails with an InvalidTokenError when the secret was already used or
	// has expired, so a secret resets at most one password.
	UpdatePasswordTx(ctx context.Context, tx database.DBTX, userID, tokenHash, passwordHash, salt string, now time.Time) error

	// DeleteExpiredResetTokens clears reset secrets that expired before now.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// SQLUserRepository is the database/sql implementation of UserRepository.
type SQLUserRepository struct {
	db *database.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Pool) UserRepository {
	return &SQLUserRepository{
		db: db,
	}
}

const selectUserColumns = `
        SELECT user_id, name, email, password_hash, salt,
               reset_password_token, reset_password_expire, created_at, updated_at
        FROM users
`

// Create adds a new user to the database
func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := r.db.Rebind(`
        INSERT INTO users (user_id, name, email, password_hash, salt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `)

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Salt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	utils.LogDBQuery(
		query,
		[]interface{}{user.ID, user.Name, user.Email, user.PasswordHash, user.Salt, user.CreatedAt, user.UpdatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if utils.IsUniqueViolation(err) {
			return utils.NewDuplicateError(constants.MsgUserExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Str(constants.ColumnUserID, user.ID).
		Str(constants.ColumnEmail, utils.MaskEmail(user.Email)).
		Msg("User created")

	return nil
}

// GetByID retrieves a user by ID
func (r *SQLUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	startTime := time.Now()

	query := r.db.Rebind(selectUserColumns + ` WHERE user_id = $1`)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError(constants.MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	startTime := time.Now()

	query := r.db.Rebind(selectUserColumns + ` WHERE email = $1`)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))

	utils.LogDBQuery(query, []interface{}{email}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError(constants.MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// ExistsByEmail checks if a user with the given email exists
func (r *SQLUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	startTime := time.Now()

	query := r.db.Rebind(`SELECT COUNT(*) FROM users WHERE email = $1`)

	var count int
	err := r.db.QueryRowContext(ctx, query, email).Scan(&count)

	utils.LogDBQuery(query, []interface{}{email}, time.Since(startTime), err)

	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return count > 0, nil
}

// SetResetToken stores a hashed reset secret for the user
func (r *SQLUserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expire time.Time) error {
	startTime := time.Now()

	query := r.db.Rebind(`
        UPDATE users
        SET reset_password_token = $1, reset_password_expire = $2, updated_at = $3
        WHERE user_id = $4
    `)

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, tokenHash, expire.UTC(), now, userID)

	utils.LogDBQuery(query, []interface{}{tokenHash, expire, now, userID}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return requireRowsAffected(result, utils.NewNotFoundError(constants.MsgUserNotFound))
}

// ClearResetToken removes the pending reset secret for the user
func (r *SQLUserRepository) ClearResetToken(ctx context.Context, userID string) error {
	startTime := time.Now()

	query := r.db.Rebind(`
        UPDATE users
        SET reset_password_token = NULL, reset_password_expire = NULL, updated_at = $1
        WHERE user_id = $2
    `)

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, now, userID)

	utils.LogDBQuery(query, []interface{}{now, userID}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}

	return nil
}

// GetByResetTokenHash retrieves the user holding an unexpired reset secret
func (r *SQLUserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	startTime := time.Now()

	query := r.db.Rebind(selectUserColumns + ` WHERE reset_password_token = $1 AND reset_password_expire > $2`)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, tokenHash, now.UTC()))

	utils.LogDBQuery(query, []interface{}{tokenHash, now}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewInvalidTokenError()
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return user, nil
}

// UpdatePasswordTx sets a new password and clears the reset secret within tx
func (r *SQLUserRepository) UpdatePasswordTx(ctx context.Context, tx database.DBTX, userID, tokenHash, passwordHash, salt string, now time.Time) error {
	startTime := time.Now()

	query := r.db.Rebind(`
        UPDATE users
        SET password_hash = $1, salt = $2,
            reset_password_token = NULL, reset_password_expire = NULL, updated_at = $3
        WHERE user_id = $4 AND reset_password_token = $5 AND reset_password_expire > $6
    `)

	now = now.UTC()
	result, err := tx.ExecContext(ctx, query, passwordHash, salt, now, userID, tokenHash, now)

	utils.LogDBQuery(query, []interface{}{passwordHash, salt, now, userID, tokenHash, now}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := requireRowsAffected(result, utils.NewInvalidTokenError()); err != nil {
		return err
	}

	log.Info().Str(constants.ColumnUserID, userID).Msg("Password updated")

	return nil
}

// DeleteExpiredResetTokens clears every reset secret that expired before now
func (r *SQLUserRepository) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	startTime := time.Now()

	query := r.db.Rebind(`
        UPDATE users
        SET reset_password_token = NULL, reset_password_expire = NULL
        WHERE reset_password_expire IS NOT NULL AND reset_password_expire <= $1
    `)

	result, err := r.db.ExecContext(ctx, query, now.UTC())

	utils.LogDBQuery(query, []interface{}{now}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}

	cleared, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if cleared > 0 {
		log.Info().Int64("count", cleared).Msg("Cleared expired reset tokens")
	}

	return cleared, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var resetToken sql.NullString
	var resetExpire sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&resetToken,
		&resetExpire,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resetToken.Valid {
		user.ResetPasswordToken = &resetToken.String
	}
	if resetExpire.Valid {
		expire := resetExpire.Time
		user.ResetPasswordExpire = &expire
	}

	return user, nil
}

// requireRowsAffected returns notFound when the statement touched no rows.
func requireRowsAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
