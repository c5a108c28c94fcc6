// Package migrations embeds the schema for every supported dialect and
// applies it with goose.
//
// Each dialect keeps its own directory of numbered SQL files. The users and
// sessions tables are identical in shape across dialects; only column types
// differ.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/database"
)

// FS holds the embedded migration files.
//
//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

// Seams for testing goose without a database.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.DownContext(ctx, db, dir, opts...)
	}
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.StatusContext(ctx, db, dir, opts...)
	}
	gooseVersionContext = func(ctx context.Context, db *sql.DB) (int64, error) {
		return goose.GetDBVersionContext(ctx, db)
	}
)

// Migrator applies the embedded schema to a database pool.
type Migrator struct {
	db      *sql.DB
	dialect string
}

// NewMigrator creates a migrator for the pool's dialect.
func NewMigrator(pool *database.Pool) *Migrator {
	return &Migrator{db: pool.DB, dialect: Dialect(pool.Driver)}
}

// Dialect maps a database/sql driver name to its goose dialect and
// migration directory.
func Dialect(driver string) string {
	if driver == "mysql" {
		return "mysql"
	}
	return "postgres"
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", func(dir string) error {
		return gooseUpContext(ctx, m.db, dir)
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", func(dir string) error {
		return gooseDownContext(ctx, m.db, dir)
	})
}

// Status logs the applied state of every migration.
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(ctx, "status", func(dir string) error {
		return gooseStatusContext(ctx, m.db, dir)
	})
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.run(ctx, "version", func(string) error {
		v, err := gooseVersionContext(ctx, m.db)
		version = v
		return err
	})
	return version, err
}

func (m *Migrator) run(ctx context.Context, op string, fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(FS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("setting migration dialect %q: %w", m.dialect, err)
	}

	log.Info().Str("dialect", m.dialect).Str("operation", op).Msg("Running database migrations")
	if err := fn(m.dialect); err != nil {
		return fmt.Errorf("migration %s failed: %w", op, err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}
