package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// InitLogger initializes the global zerolog logger from configuration.
func InitLogger(cfg *config.AppConfig) {
	InitLoggerWithWriter(cfg, os.Stdout)
}

// InitLoggerWithWriter is InitLogger with an explicit output, used by tests.
func InitLoggerWithWriter(cfg *config.AppConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := out
	if strings.ToLower(cfg.Logging.Format) == "console" && !cfg.App.IsProduction() {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Logger()

	log.Info().Msg("Logger initialized")
}

// RequestLogger creates a logger with request-specific context
func RequestLogger(requestID, userID, method, path string) zerolog.Logger {
	logger := log.With().
		Str(constants.RequestIDContextKey, requestID).
		Str("method", method).
		Str("path", path)

	if userID != "" {
		logger = logger.Str(constants.UserIDContextKey, userID)
	}

	return logger.Logger()
}

// LogHTTPRequest logs a completed HTTP request.
func LogHTTPRequest(requestID, method, path, remoteAddr, userAgent string, statusCode int, latency time.Duration) {
	// Probes are noisy; only log them at debug level
	if path == constants.APIBasePath+constants.HealthPath || path == constants.DefaultMetricsPath {
		if zerolog.GlobalLevel() > zerolog.DebugLevel {
			return
		}
	}

	event := log.Debug()
	switch {
	case statusCode >= 500:
		event = log.Error()
	case statusCode >= 400:
		event = log.Warn()
	case strings.HasPrefix(path, constants.APIBasePath):
		event = log.Info()
	}

	event.
		Str(constants.RequestIDContextKey, requestID).
		Str("method", method).
		Str("path", path).
		Str("remote_addr", remoteAddr).
		Str("user_agent", userAgent).
		Int("status", statusCode).
		Dur("latency", latency).
		Msg("HTTP Request")
}

// LogPanic logs a recovered panic value
func LogPanic(recovered interface{}, stack []byte) {
	log.Error().
		Interface("panic", recovered).
		Str("stack", string(stack)).
		Msg("Panic recovered")
}

// LogDBQuery logs a database query. String arguments of queries touching
// credential columns are redacted.
func LogDBQuery(query string, args []interface{}, duration time.Duration, err error) {
	lowered := strings.ToLower(query)
	sensitive := false
	for _, col := range constants.SensitiveQueryFields {
		if strings.Contains(lowered, col) {
			sensitive = true
			break
		}
	}

	safeArgs := make([]interface{}, len(args))
	for i, arg := range args {
		if _, ok := arg.(string); ok && sensitive {
			safeArgs[i] = constants.LogRedactedValue
			continue
		}
		safeArgs[i] = arg
	}

	event := log.Debug()
	if err != nil {
		event = log.Error().Err(err)
	}

	event.
		Str("query", query).
		Interface("args", safeArgs).
		Dur("duration", duration).
		Msg("Database query executed")
}

// LogAuth logs authentication events. The email is masked.
func LogAuth(event string, userID, email string, success bool, reason string) {
	logEvent := log.Info()
	if !success {
		logEvent = log.Warn()
	}

	logEvent = logEvent.
		Str("event", event).
		Str(constants.UserIDContextKey, userID).
		Str(constants.EmailContextKey, MaskEmail(email)).
		Bool("success", success)

	if reason != "" {
		logEvent = logEvent.Str("reason", reason)
	}

	logEvent.Msg("Authentication event")
}

// GetLogLevel returns the current global log level as a string
func GetLogLevel() string {
	return zerolog.GlobalLevel().String()
}

// SetLogLevel updates the global log level
func SetLogLevel(level string) error {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}

	zerolog.SetGlobalLevel(parsedLevel)
	log.Info().Str("level", parsedLevel.String()).Msg("Log level changed")

	return nil
}
