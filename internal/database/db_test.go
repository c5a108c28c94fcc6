package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
)

func testConfig(driver string) *config.AppConfig {
	return &config.AppConfig{
		Database: config.DatabaseSettings{
			Driver:   driver,
			Host:     "localhost",
			Port:     5432,
			Name:     "authflow",
			User:     "authflow",
			MaxConns: 4,
			MinConns: 1,
		},
	}
}

func withMockOpen(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	original := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		return db, nil
	}
	t.Cleanup(func() { sqlOpen = original })

	return mock
}

func TestConnectRetriesUntilPingSucceeds(t *testing.T) {
	mock := withMockOpen(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	backoff := retry.WithMaxRetries(3, retry.NewConstant(time.Millisecond))
	pool, err := connectWithBackoff(context.Background(), testConfig(constants.DriverPgx), backoff)

	require.NoError(t, err)
	assert.Equal(t, constants.DriverPgx, pool.Driver)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectGivesUpAfterMaxRetries(t *testing.T) {
	mock := withMockOpen(t)
	for i := 0; i < 3; i++ {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	}
	mock.ExpectClose()

	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	pool, err := connectWithBackoff(context.Background(), testConfig(constants.DriverPostgres), backoff)

	assert.Nil(t, pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectOpenFailure(t *testing.T) {
	original := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("unknown driver") }
	t.Cleanup(func() { sqlOpen = original })

	_, err := Connect(context.Background(), testConfig("nope"))
	assert.ErrorContains(t, err, "failed to open database")
}

func TestRebind(t *testing.T) {
	query := "UPDATE users SET name = $1 WHERE user_id = $2 AND updated_at < $10"

	assert.Equal(t, query, Rebind(constants.DriverPostgres, query))
	assert.Equal(t, query, Rebind(constants.DriverPgx, query))
	assert.Equal(t, "UPDATE users SET name = ? WHERE user_id = ? AND updated_at < ?", Rebind(constants.DriverMySQL, query))

	pool := &Pool{Driver: constants.DriverMySQL}
	assert.Equal(t, "SELECT ?", pool.Rebind("SELECT $1"))
}

func TestCloseNilSafe(t *testing.T) {
	t.Run("nil DB pointer", func(t *testing.T) {
		pool := &Pool{DB: nil}
		assert.NotPanics(t, pool.Close)
	})

	t.Run("nil pool", func(t *testing.T) {
		var pool *Pool
		assert.NotPanics(t, pool.Close)
	})
}

func TestTransaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		pool := NewPool(db, constants.DriverPostgres)
		err = pool.Transaction(context.Background(), func(tx *sql.Tx) error {
			_, err := tx.ExecContext(context.Background(), "UPDATE users SET name = $1", "Ann")
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		pool := NewPool(db, constants.DriverPostgres)
		boom := errors.New("boom")
		err = pool.Transaction(context.Background(), func(tx *sql.Tx) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and repanics", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		pool := NewPool(db, constants.DriverPostgres)
		assert.Panics(t, func() {
			_ = pool.Transaction(context.Background(), func(tx *sql.Tx) error { panic("boom") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		pool := NewPool(db, constants.DriverPostgres)
		err = pool.Transaction(context.Background(), func(tx *sql.Tx) error { return nil })

		assert.ErrorContains(t, err, "failed to begin transaction")
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		assert.NoError(t, NewPool(db, constants.DriverPostgres).HealthCheck(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("down"))

		err = NewPool(db, constants.DriverPostgres).HealthCheck(context.Background())
		assert.ErrorContains(t, err, "health check failed")
	})

	t.Run("unexpected result", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(2))

		err = NewPool(db, constants.DriverPostgres).HealthCheck(context.Background())
		assert.ErrorContains(t, err, "unexpected result")
	})
}
