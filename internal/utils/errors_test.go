package utils_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/yasinhessnawi1/authflow/internal/utils"
)

func TestNew(t *testing.T) {
	base := errors.New("base error")
	appErr := utils.New(base, http.StatusTeapot, "Short and stout")

	if appErr.Error() != "Short and stout" {
		t.Errorf("Error() = %q, want %q", appErr.Error(), "Short and stout")
	}
	if appErr.StatusCode != http.StatusTeapot {
		t.Errorf("StatusCode = %d, want %d", appErr.StatusCode, http.StatusTeapot)
	}
	if !errors.Is(appErr, base) {
		t.Error("errors.Is(appErr, base) = false, want true")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *utils.AppError
		sentinel   error
		statusCode int
		message    string
	}{
		{"validation", utils.NewValidationError("email", "Must be a valid email address"), utils.ErrValidation, http.StatusBadRequest, "Must be a valid email address"},
		{"bad request", utils.NewBadRequestError("Please provide an email"), utils.ErrBadRequest, http.StatusBadRequest, "Please provide an email"},
		{"not found default", utils.NewNotFoundError(""), utils.ErrNotFound, http.StatusNotFound, "The requested resource could not be found"},
		{"not found custom", utils.NewNotFoundError("No user with that email"), utils.ErrNotFound, http.StatusNotFound, "No user with that email"},
		{"unauthorized default", utils.NewUnauthorizedError(""), utils.ErrUnauthorized, http.StatusUnauthorized, "Not authorized to access this route"},
		{"internal", utils.NewInternalServerError(errors.New("boom")), utils.ErrInternalServer, http.StatusInternalServerError, "An internal server error occurred"},
		{"duplicate", utils.NewDuplicateError(""), utils.ErrDuplicate, http.StatusBadRequest, "User already exists"},
		{"invalid credentials", utils.NewInvalidCredentialsError(), utils.ErrInvalidCredentials, http.StatusUnauthorized, "The email or password you entered is incorrect"},
		{"expired token", utils.NewExpiredTokenError(), utils.ErrExpiredToken, http.StatusUnauthorized, "Not authorized to access this route"},
		{"invalid token", utils.NewInvalidTokenError(), utils.ErrInvalidToken, http.StatusBadRequest, "Invalid token"},
		{"upstream", utils.NewUpstreamError("Email could not be sent", errors.New("smtp down")), utils.ErrUpstream, http.StatusInternalServerError, "Email could not be sent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.statusCode)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.message)
			}
		})
	}
}

func TestAppErrorFieldPrefix(t *testing.T) {
	err := utils.NewValidationError("password", "Too short")
	if err.Error() != "password: Too short" {
		t.Errorf("Error() = %q, want %q", err.Error(), "password: Too short")
	}
}

func TestInternalErrorsKeepDevInfo(t *testing.T) {
	err := utils.NewInternalServerError(errors.New("connection refused"))
	if err.DevInfo != "connection refused" {
		t.Errorf("DevInfo = %q, want %q", err.DevInfo, "connection refused")
	}
	if utils.NewInternalServerError(nil).DevInfo != "" {
		t.Error("DevInfo should be empty for a nil error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"lib/pq unique", &pq.Error{Code: "23505"}, true},
		{"lib/pq other", &pq.Error{Code: "23503"}, false},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, true},
		{"pgx wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", &mysql.MySQLError{Number: 1045}, false},
		{"plain error", errors.New("duplicate key"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		sentinel   error
		statusCode int
	}{
		{"wrapped not found", fmt.Errorf("get user: %w", utils.ErrNotFound), utils.ErrNotFound, http.StatusNotFound},
		{"unauthorized", utils.ErrUnauthorized, utils.ErrUnauthorized, http.StatusUnauthorized},
		{"duplicate sentinel", utils.ErrDuplicate, utils.ErrDuplicate, http.StatusBadRequest},
		{"driver unique violation", &pq.Error{Code: "23505"}, utils.ErrDuplicate, http.StatusBadRequest},
		{"invalid credentials", utils.ErrInvalidCredentials, utils.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", utils.ErrExpiredToken, utils.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid token", utils.ErrInvalidToken, utils.ErrInvalidToken, http.StatusBadRequest},
		{"upstream", utils.ErrUpstream, utils.ErrUpstream, http.StatusInternalServerError},
		{"unknown", errors.New("disk on fire"), utils.ErrInternalServer, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := utils.ParseError(tt.err)
			if !errors.Is(appErr, tt.sentinel) {
				t.Errorf("ParseError() = %v, want sentinel %v", appErr.Err, tt.sentinel)
			}
			if appErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", appErr.StatusCode, tt.statusCode)
			}
		})
	}

	t.Run("nil", func(t *testing.T) {
		if utils.ParseError(nil) != nil {
			t.Error("ParseError(nil) should be nil")
		}
	})

	t.Run("app error passes through", func(t *testing.T) {
		orig := utils.NewNotFoundError("No user with that email")
		if got := utils.ParseError(fmt.Errorf("wrapped: %w", orig)); got != orig {
			t.Errorf("ParseError() = %v, want the original AppError", got)
		}
	})

	t.Run("unknown errors hide details", func(t *testing.T) {
		appErr := utils.ParseError(errors.New("password_hash column missing"))
		if appErr.Message != "An internal server error occurred" {
			t.Errorf("Message = %q", appErr.Message)
		}
	})
}

func TestIsNotFoundError(t *testing.T) {
	if !utils.IsNotFoundError(utils.NewNotFoundError("")) {
		t.Error("AppError not found should match")
	}
	if !utils.IsNotFoundError(fmt.Errorf("x: %w", utils.ErrNotFound)) {
		t.Error("wrapped sentinel should match")
	}
	if utils.IsNotFoundError(utils.NewBadRequestError("nope")) {
		t.Error("bad request should not match")
	}
}

func TestIsDuplicateError(t *testing.T) {
	if !utils.IsDuplicateError(utils.NewDuplicateError("")) {
		t.Error("duplicate AppError should match")
	}
	if !utils.IsDuplicateError(&mysql.MySQLError{Number: 1062}) {
		t.Error("mysql duplicate entry should match")
	}
	if utils.IsDuplicateError(errors.New("other")) {
		t.Error("plain error should not match")
	}
}

func TestStatusCode(t *testing.T) {
	if got := utils.StatusCode(utils.NewInvalidCredentialsError()); got != http.StatusUnauthorized {
		t.Errorf("StatusCode() = %d, want %d", got, http.StatusUnauthorized)
	}
	if got := utils.StatusCode(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", got, http.StatusInternalServerError)
	}
}
