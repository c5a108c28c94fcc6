package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout   = 30 * time.Second
	DBHealthCheckTimeout  = 5 * time.Second
	DBConnMaxLifetime     = 1 * time.Hour
	DBConnMaxIdleTime     = 30 * time.Minute
	DBMaintenanceInterval = 1 * time.Hour
	DBConnectRetryBase    = 500 * time.Millisecond
	DBConnectMaxRetries   = 5
)

// Authentication Timeouts
const (
	DefaultJWTExpiry         = 30 * 24 * time.Hour
	DefaultResetTokenExpiry  = 10 * time.Minute
	LogoutCookieExpiry       = 10 * time.Second
	DefaultMailSendTimeout   = 15 * time.Second
	DefaultClientHTTPTimeout = 10 * time.Second
)
