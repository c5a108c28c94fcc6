package server

import (
	"context"
)

// DBHealthChecker defines the interface for database health checks.
// The health route depends on it rather than on the pool itself.
type DBHealthChecker interface {
	// HealthCheck verifies the database connection is working properly
	HealthCheck(ctx context.Context) error
}

// ExpiredCleaner removes expired sessions and reset tokens. The
// AuthService implements it.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (sessions int64, resetTokens int64, err error)
}
