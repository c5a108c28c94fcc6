package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App          AppSettings       `yaml:"app"`
	Database     DatabaseSettings  `yaml:"database"`
	Server       ServerSettings    `yaml:"server"`
	JWT          JWTSettings       `yaml:"jwt"`
	Auth         AuthSettings      `yaml:"auth"`
	Mail         MailSettings      `yaml:"mail"`
	Logging      LoggingSettings   `yaml:"logging"`
	CORS         CORSSettings      `yaml:"cors"`
	PasswordHash HashSettings      `yaml:"password_hash"`
	RateLimit    RateLimitSettings `yaml:"rate_limit"`
	Metrics      MetricsSettings   `yaml:"metrics"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings. URL, when set,
// is used verbatim and the individual fields are ignored.
type DatabaseSettings struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	// TrustProxy honours X-Forwarded-For and X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxy bool `yaml:"trust_proxy" env:"TRUST_PROXY"`
}

// JWTSettings contains session token settings
type JWTSettings struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	Expiry time.Duration `yaml:"expiry" env:"JWT_EXPIRY"`
	Issuer string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// AuthSettings controls the password reset flow and the enumeration policy.
type AuthSettings struct {
	ResetTokenExpiry   time.Duration `yaml:"reset_token_expiry" env:"RESET_TOKEN_EXPIRY"`
	ClientURL          string        `yaml:"client_url" env:"CLIENT_URL"`
	RevealUnknownEmail bool          `yaml:"reveal_unknown_email" env:"AUTH_REVEAL_UNKNOWN_EMAIL"`
	DisableCheckUser   bool          `yaml:"disable_check_user" env:"AUTH_DISABLE_CHECK_USER"`
	CookieDomain       string        `yaml:"cookie_domain" env:"COOKIE_DOMAIN"`
}

// MailSettings selects the reset mail transport. A SendGrid API key wins over
// SMTP; with neither set, reset links are only logged.
type MailSettings struct {
	SendGridAPIKey string        `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	Host           string        `yaml:"host" env:"EMAIL_HOST"`
	Port           int           `yaml:"port" env:"EMAIL_PORT"`
	Username       string        `yaml:"username" env:"EMAIL_USER"`
	Password       string        `yaml:"password" env:"EMAIL_PASSWORD"`
	FromName       string        `yaml:"from_name" env:"FROM_NAME"`
	FromEmail      string        `yaml:"from_email" env:"FROM_EMAIL"`
	SendTimeout    time.Duration `yaml:"send_timeout" env:"EMAIL_SEND_TIMEOUT"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// HashSettings contains argon2id parameters
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// RateLimitSettings configures the per-IP limiter on credential endpoints.
type RateLimitSettings struct {
	Disabled          bool    `yaml:"disabled" env:"RATE_LIMIT_DISABLED"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

// MetricsSettings configures the prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `yaml:"path" env:"METRICS_PATH"`
}

// DSN returns the driver-specific data source name.
func (dbs *DatabaseSettings) DSN() string {
	if dbs.URL != "" {
		return dbs.URL
	}

	if dbs.Driver == constants.DriverMySQL {
		password := dbs.Password
		if password != "" {
			password = ":" + password
		}
		return fmt.Sprintf(
			"%s%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4&collation=utf8mb4_unicode_ci&clientFoundRows=true",
			dbs.User, password, dbs.Host, dbs.Port, dbs.Name,
		)
	}

	// lib/pq and pgx both accept the keyword/value form
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbs.Host, dbs.Port, dbs.User, quoteDSNValue(dbs.Password), dbs.Name, dbs.SSLMode,
	)
}

func quoteDSNValue(v string) string {
	if v == "" {
		return "''"
	}
	if strings.ContainsAny(v, ` '\`) {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `'`, `\'`)
		return "'" + v + "'"
	}
	return v
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

// UsesSendGrid reports whether reset mail goes through the SendGrid API.
func (ms *MailSettings) UsesSendGrid() bool {
	return ms.SendGridAPIKey != ""
}

// UsesLogMailer reports whether reset links are logged instead of emailed.
func (ms *MailSettings) UsesLogMailer() bool {
	return ms.Host == "" && !ms.UsesSendGrid()
}

// Load loads the configuration from a config file and environment variables.
// A missing file is not an error.
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}

			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logConfig(config)

	return config, nil
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultJWTIssuer
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Host == "" {
		config.Server.Host = constants.DefaultServerHost
	}
	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.IdleTimeout == 0 {
		config.Server.IdleTimeout = constants.DefaultIdleTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	config.Database.Driver = strings.ToLower(config.Database.Driver)
	if config.Database.Driver == "" {
		config.Database.Driver = constants.DriverPostgres
	}
	if config.Database.Host == "" {
		config.Database.Host = "localhost"
	}
	if config.Database.Port == 0 {
		if config.Database.Driver == constants.DriverMySQL {
			config.Database.Port = constants.DefaultMySQLPort
		} else {
			config.Database.Port = constants.DefaultDBPort
		}
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = constants.DefaultDBSSLMode
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = constants.DefaultJWTExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	if config.Auth.ResetTokenExpiry == 0 {
		config.Auth.ResetTokenExpiry = constants.DefaultResetTokenExpiry
	}
	if config.Auth.ClientURL == "" {
		config.Auth.ClientURL = constants.DefaultClientURL
	}
	config.Auth.ClientURL = strings.TrimRight(config.Auth.ClientURL, "/")

	if config.Mail.Port == 0 {
		config.Mail.Port = constants.DefaultEmailPort
	}
	if config.Mail.FromName == "" {
		config.Mail.FromName = constants.DefaultFromName
	}
	if config.Mail.FromEmail == "" {
		config.Mail.FromEmail = config.Mail.Username
	}
	if config.Mail.SendTimeout == 0 {
		config.Mail.SendTimeout = constants.DefaultMailSendTimeout
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		if config.App.IsProduction() {
			config.Logging.Format = "json"
		} else {
			config.Logging.Format = "console"
		}
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{config.Auth.ClientURL}
		config.CORS.AllowCredentials = true
	}

	if config.PasswordHash.Memory == 0 {
		config.PasswordHash.Memory = constants.DefaultArgonMemory
	}
	if config.PasswordHash.Iterations == 0 {
		config.PasswordHash.Iterations = constants.DefaultArgonIterations
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultArgonParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultArgonSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultArgonKeyLength
	}

	if config.RateLimit.RequestsPerSecond == 0 {
		config.RateLimit.RequestsPerSecond = constants.DefaultRateLimitRPS
	}
	if config.RateLimit.Burst == 0 {
		config.RateLimit.Burst = constants.DefaultRateLimitBurst
	}

	if config.Metrics.Path == "" {
		config.Metrics.Path = constants.DefaultMetricsPath
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Unknown environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	switch config.Database.Driver {
	case constants.DriverPostgres, constants.DriverPgx, constants.DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Database.URL == "" && config.Database.User == "" {
		return fmt.Errorf("database user must be set")
	}

	if config.JWT.Secret == "" {
		if config.App.IsProduction() {
			return fmt.Errorf("JWT secret must be set in production")
		}
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generating development JWT secret: %w", err)
		}
		config.JWT.Secret = secret
		log.Warn().Msg("JWT_SECRET not set, using a random secret; sessions will not survive a restart")
	}
	if config.App.IsProduction() && len(config.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters in production")
	}

	if _, err := url.ParseRequestURI(config.Auth.ClientURL); err != nil {
		return fmt.Errorf("invalid client url %q: %w", config.Auth.ClientURL, err)
	}

	if !config.Mail.UsesLogMailer() && config.Mail.FromEmail == "" {
		return fmt.Errorf("from email must be set when a mail transport is configured")
	}

	if config.RateLimit.RequestsPerSecond < 0 || config.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}

	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	logCfg := *config

	if logCfg.Database.Password != "" {
		logCfg.Database.Password = constants.LogRedactedValue
	}
	if logCfg.Mail.SendGridAPIKey != "" {
		logCfg.Mail.SendGridAPIKey = constants.LogRedactedValue
	}
	if logCfg.Mail.Password != "" {
		logCfg.Mail.Password = constants.LogRedactedValue
	}

	log.Info().
		Str("environment", logCfg.App.Environment).
		Str("version", logCfg.App.Version).
		Str("server", logCfg.Server.ServerAddress()).
		Str("db_driver", logCfg.Database.Driver).
		Str("db_host", logCfg.Database.Host).
		Int("db_port", logCfg.Database.Port).
		Str("db_name", logCfg.Database.Name).
		Dur("jwt_expiry", logCfg.JWT.Expiry).
		Dur("reset_token_expiry", logCfg.Auth.ResetTokenExpiry).
		Bool("log_mailer", logCfg.Mail.UsesLogMailer()).
		Bool("metrics", logCfg.Metrics.Enabled).
		Str("log_level", logCfg.Logging.Level).
		Msg("Configuration loaded")
}
