// internal/utils/validation.go
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/constants"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator initializes the validator with custom validations
func InitValidator() {
	validateOnce.Do(func() {
		validate = validator.New()

		// Report json tag names instead of struct field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		registerCustomValidations(validate)

		log.Debug().Msg("Validator initialized")
	})
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	InitValidator()
	return validate
}

// DecodeJSON decodes a JSON request body into the provided struct
// with size limits and strict field checking
func DecodeJSON(r *http.Request, v interface{}) error {
	return decodeJSON(r, v, false)
}

// DecodeOptionalJSON is DecodeJSON for routes where an empty body is the same
// as an empty object. v is left untouched when the body is empty.
func DecodeOptionalJSON(r *http.Request, v interface{}) error {
	return decodeJSON(r, v, true)
}

func decodeJSON(r *http.Request, v interface{}, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(nil, r.Body, constants.MaxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &maxBytesError):
			return NewBadRequestError(constants.MsgRequestBodyTooLarge)

		case errors.Is(err, io.EOF):
			if allowEmpty {
				return nil
			}
			return NewBadRequestError(constants.MsgInvalidJSON)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return NewBadRequestError(constants.MsgInvalidJSON)

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return NewValidationError("unknown_field", fmt.Sprintf("Request body contains unknown field %s", fieldName))

		case errors.As(err, &syntaxError):
			return NewBadRequestError(fmt.Sprintf("Request body contains malformed JSON (at position %d)", syntaxError.Offset))

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return NewValidationError(unmarshalTypeError.Field, fmt.Sprintf("Must be a %s", unmarshalTypeError.Type.String()))
			}
			return NewBadRequestError(constants.MsgInvalidJSON)

		default:
			return NewBadRequestError(constants.MsgInvalidJSON)
		}
	}

	if dec.More() {
		return NewBadRequestError("Request body must only contain a single JSON object")
	}

	return nil
}

// ValidateStruct validates a struct using the validator
func ValidateStruct(v interface{}) error {
	err := GetValidator().Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		if len(validationErrors) == 1 {
			e := validationErrors[0]
			return NewValidationError(e.Field(), getErrorMessage(e))
		}

		details := make(map[string]string)
		for _, e := range validationErrors {
			details[e.Field()] = getErrorMessage(e)
		}

		return NewValidationErrorWithDetails(constants.MsgValidationFailed, details)
	}

	return NewBadRequestError(err.Error())
}

// DecodeAndValidate decodes a JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	return ValidateStruct(v)
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if e.Type().Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters long", e.Param())
		}
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "max":
		if e.Type().Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long", e.Param())
		}
		return fmt.Sprintf("Must be at most %s", e.Param())
	case "hexadecimal":
		return "Must be a hexadecimal string"
	case "password":
		return passwordPolicyMessage
	default:
		return fmt.Sprintf("Failed validation on the '%s' tag", e.Tag())
	}
}

const passwordPolicyMessage = "Password must be between 6 and 72 characters"

func registerCustomValidations(v *validator.Validate) {
	if err := v.RegisterValidation("password", validatePasswordPolicy); err != nil {
		log.Error().Err(err).Msg("Failed to register password validation")
	}
}

func validatePasswordPolicy(fl validator.FieldLevel) bool {
	return passwordMeetsPolicy(fl.Field().String())
}

func passwordMeetsPolicy(password string) bool {
	length := utf8.RuneCountInString(password)
	return length >= constants.MinPasswordLength && len(password) <= constants.MaxPasswordLength
}

// NewValidationErrorWithDetails creates a validation error with multiple field details
func NewValidationErrorWithDetails(message string, details map[string]string) *AppError {
	detailsMap := make(map[string]interface{}, len(details))
	for k, v := range details {
		detailsMap[k] = v
	}

	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Details:    detailsMap,
	}
}

// IsValidEmail checks if a string is a valid email address
func IsValidEmail(email string) bool {
	return GetValidator().Var(email, "required,email,max=255") == nil
}

// ValidatePassword checks a password against the password policy.
func ValidatePassword(password string) error {
	if !passwordMeetsPolicy(password) {
		return NewValidationError("password", passwordPolicyMessage)
	}
	return nil
}
