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

// SessionRepository defines methods for the server-side record of issued
// session tokens. A token authenticates only while its session row exists,
// is unrevoked and is unexpired.
type SessionRepository interface {
	// Create stores a session for a newly issued token.
	//
	// Returns:
	//   - DuplicateError if the jti is already recorded
	//   - Other errors for database issues
	Create(ctx context.Context, session *models.Session) error

	// GetByID retrieves a session by its jti.
	//
	// Returns:
	//   - NotFoundError if no session exists for the jti
	//   - Other errors for database issues
	GetByID(ctx context.Context, id string) (*models.Session, error)

	// Revoke marks a single session revoked. Revoking an unknown or already
	// revoked session is not an error.
	Revoke(ctx context.Context, id string, now time.Time) error

	// RevokeAllForUserTx revokes every live session of a user within an open
	// transaction and returns how many were revoked.
	RevokeAllForUserTx(ctx context.Context, tx database.DBTX, userID string, now time.Time) (int64, error)

	// DeleteExpired removes sessions that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SQLSessionRepository is the database/sql implementation of SessionRepository.
type SQLSessionRepository struct {
	db *database.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *database.Pool) SessionRepository {
	return &SQLSessionRepository{
		db: db,
	}
}

// Create adds a new session to the database.
func (r *SQLSessionRepository) Create(ctx context.Context, session *models.Session) error {
	startTime := time.Now()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO sessions (session_id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`)

	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	)

	utils.LogDBQuery(
		query,
		[]interface{}{session.ID, session.UserID, session.ExpiresAt, session.CreatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if utils.IsUniqueViolation(err) {
			return utils.NewDuplicateError("Session already exists")
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	log.Debug().
		Str(constants.ColumnSessionID, session.ID).
		Str(constants.ColumnUserID, session.UserID).
		Time(constants.ColumnExpiresAt, session.ExpiresAt).
		Msg("Session created")

	return nil
}

// GetByID retrieves a session by ID.
func (r *SQLSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	startTime := time.Now()

	query := r.db.Rebind(`
		SELECT session_id, user_id, expires_at, revoked_at, created_at
		FROM sessions
		WHERE session_id = $1
	`)

	session := &models.Session{}
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&revokedAt,
		&session.CreatedAt,
	)

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if revokedAt.Valid {
		t := revokedAt.Time
		session.RevokedAt = &t
	}

	return session, nil
}

// Revoke marks a session revoked.
func (r *SQLSessionRepository) Revoke(ctx context.Context, id string, now time.Time) error {
	startTime := time.Now()

	query := r.db.Rebind(`
		UPDATE sessions
		SET revoked_at = $1
		WHERE session_id = $2 AND revoked_at IS NULL
	`)

	now = now.UTC()
	_, err := r.db.ExecContext(ctx, query, now, id)

	utils.LogDBQuery(query, []interface{}{now, id}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	log.Debug().Str(constants.ColumnSessionID, id).Msg("Session revoked")

	return nil
}

// RevokeAllForUserTx revokes all live sessions for a user within tx.
func (r *SQLSessionRepository) RevokeAllForUserTx(ctx context.Context, tx database.DBTX, userID string, now time.Time) (int64, error) {
	startTime := time.Now()

	query := r.db.Rebind(`
		UPDATE sessions
		SET revoked_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL
	`)

	now = now.UTC()
	result, err := tx.ExecContext(ctx, query, now, userID)

	utils.LogDBQuery(query, []interface{}{now, userID}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	revoked, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	log.Info().
		Str(constants.ColumnUserID, userID).
		Int64("count", revoked).
		Msg("Revoked user sessions")

	return revoked, nil
}

// DeleteExpired removes all expired sessions from the database.
func (r *SQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	startTime := time.Now()

	query := r.db.Rebind(`DELETE FROM sessions WHERE expires_at <= $1`)

	now = now.UTC()
	result, err := r.db.ExecContext(ctx, query, now)

	utils.LogDBQuery(query, []interface{}{now}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if deleted > 0 {
		log.Info().Int64("count", deleted).Msg("Deleted expired sessions")
	}

	return deleted, nil
}
