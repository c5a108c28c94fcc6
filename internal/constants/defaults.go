// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits. These apply when the
// config file and environment leave a setting unset.
package constants

// Default Configuration Values
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 5000

	// DefaultServerHost binds on all interfaces.
	DefaultServerHost = "0.0.0.0"

	// DefaultDBPort is the default PostgreSQL port.
	DefaultDBPort = 5432

	// DefaultMySQLPort is used when the mysql driver is selected without a port.
	DefaultMySQLPort = 3306

	// DefaultDBMaxConnections is the default maximum number of database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default number of idle connections kept open.
	DefaultDBMinConnections = 5

	// DefaultDBSSLMode is the default sslmode for postgres drivers.
	DefaultDBSSLMode = "disable"

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultClientURL is the frontend origin used to build reset links.
	DefaultClientURL = "http://localhost:3000"

	// DefaultJWTIssuer is written into the iss claim.
	DefaultJWTIssuer = "authflow"

	// DefaultEmailPort is the default SMTP submission port.
	DefaultEmailPort = 587

	// DefaultFromName is the display name on reset emails.
	DefaultFromName = "Authflow"

	// DefaultRateLimitRPS is the per-IP rate on credential endpoints.
	DefaultRateLimitRPS = 1.0

	// DefaultRateLimitBurst is the per-IP burst on credential endpoints.
	DefaultRateLimitBurst = 5

	// DefaultMetricsPath is where prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// Environment Types
const (
	// EnvDevelopment enables console logging and insecure cookies.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction enables secure cookies and JSON logging.
	EnvProduction = "production"
)

// Argon2id defaults.
const (
	DefaultArgonMemory      = 64 * 1024
	DefaultArgonIterations  = 3
	DefaultArgonParallelism = 2
	DefaultArgonSaltLength  = 16
	DefaultArgonKeyLength   = 32
)

// Request limits.
const (
	// MaxRequestBodySize caps JSON bodies on every endpoint.
	MaxRequestBodySize = 1 << 20
)

// LogRedactedValue replaces secrets in logs and logged configuration.
const LogRedactedValue = "[REDACTED]"
