// internal/database/db.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/lib/pq"              // postgres driver
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// Pool represents a database connection pool and the dialect it speaks.
type Pool struct {
	*sql.DB
	Driver string
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// NewPool wraps an open *sql.DB.
func NewPool(db *sql.DB, driver string) *Pool {
	return &Pool{DB: db, Driver: driver}
}

// Connect opens the configured database and pings it, retrying with
// exponential backoff until the database answers or the retries run out.
func Connect(ctx context.Context, cfg *config.AppConfig) (*Pool, error) {
	return connectWithBackoff(ctx, cfg, retry.WithMaxRetries(
		constants.DBConnectMaxRetries,
		retry.NewExponential(constants.DBConnectRetryBase),
	))
}

func connectWithBackoff(ctx context.Context, cfg *config.AppConfig, backoff retry.Backoff) (*Pool, error) {
	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Name).
		Msg("Connecting to database")

	db, err := sqlOpen(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBConnMaxIdleTime)

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, constants.DBConnectionTimeout)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Database not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
	}

	log.Info().Int("attempts", attempt).Msg("Successfully connected to database")

	return NewPool(db, cfg.Database.Driver), nil
}

// Rebind rewrites $N placeholders to ? for mysql. Queries must use each
// placeholder once and in ascending order.
func (p *Pool) Rebind(query string) string {
	return Rebind(p.Driver, query)
}

// Rebind rewrites $N placeholders for the given driver.
func Rebind(driver, query string) string {
	if driver != constants.DriverMySQL {
		return query
	}
	return placeholderPattern.ReplaceAllString(query, "?")
}

// Close closes the database connection pool
func (p *Pool) Close() {
	if p != nil && p.DB != nil {
		log.Info().Msg("Closing database connection pool")
		if err := p.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection pool")
		}
	}
}

// Transaction executes fn within a transaction. The transaction is rolled
// back when fn returns an error or panics.
func (p *Pool) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the database connection
func (p *Pool) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBHealthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := p.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("database returned unexpected result: %d", result)
	}

	log.Debug().Dur("duration", time.Since(start)).Msg("Database health check passed")
	return nil
}
