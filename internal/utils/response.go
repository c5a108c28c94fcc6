// Package utils provides utility functions and helpers for the application.
// This file implements the response envelope shared by every endpoint.
//
// Successful responses carry "success": true. Error responses carry
// "success": false, a top-level human-readable "message" that clients show
// verbatim, and a structured "error" object with a machine-readable code.
package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// Response represents the standard data envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo represents error information in the response.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// JSON sends {"success": ..., "data": data}. The success flag follows the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	SendJSON(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	})
}

// Message sends {"success": ..., "message": message}.
func Message(w http.ResponseWriter, statusCode int, message string) {
	SendJSON(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Message: message,
	})
}

// Error sends an error envelope with the given status code and error information.
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	SendJSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// ErrorFromAppError sends an error response based on an AppError.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	if err.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err.Err).Str("dev_info", err.DevInfo).Msg(err.Message)
	}

	var details map[string]string
	if len(err.Details) > 0 {
		details = make(map[string]string, len(err.Details))
		for k, v := range err.Details {
			if s, ok := v.(string); ok {
				details[k] = s
			}
		}
	} else if err.Field != "" {
		details = map[string]string{err.Field: err.Message}
	}

	Error(w, err.StatusCode, errorCode(err.Err), err.Message, details)
}

// WriteError parses any error into an AppError and writes it.
func WriteError(w http.ResponseWriter, err error) {
	ErrorFromAppError(w, ParseError(err))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return constants.CodeNotFound
	case errors.Is(err, ErrBadRequest):
		return constants.CodeBadRequest
	case errors.Is(err, ErrUnauthorized):
		return constants.CodeUnauthorized
	case errors.Is(err, ErrValidation):
		return constants.CodeValidationError
	case errors.Is(err, ErrDuplicate):
		return constants.CodeDuplicateResource
	case errors.Is(err, ErrInvalidCredentials):
		return constants.CodeInvalidCredentials
	case errors.Is(err, ErrExpiredToken):
		return constants.CodeTokenExpired
	case errors.Is(err, ErrInvalidToken):
		return constants.CodeTokenInvalid
	case errors.Is(err, ErrUpstream):
		return constants.CodeUpstreamFailure
	}
	return constants.CodeInternalError
}

// SendJSON marshals data and writes it with the JSON content type.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"message":"Failed to generate response","error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	if _, err := w.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// BadRequest sends a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	Error(w, http.StatusBadRequest, constants.CodeBadRequest, message, details)
}

// Unauthorized sends a 401 response, falling back to the default message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgNotAuthorized
	}
	Error(w, http.StatusUnauthorized, constants.CodeUnauthorized, message, nil)
}

// NotFound sends a 404 Not Found response with the given message.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, http.StatusNotFound, constants.CodeNotFound, message, nil)
}

// MethodNotAllowed sends a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, constants.CodeMethodNotAllowed, constants.MsgMethodNotAllowed, nil)
}

// TooManyRequests sends a 429 response.
func TooManyRequests(w http.ResponseWriter) {
	Error(w, http.StatusTooManyRequests, constants.CodeRateLimited, constants.MsgRateLimited, nil)
}

// InternalServerError logs err and sends a generic 500 response.
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	Error(w, http.StatusInternalServerError, constants.CodeInternalError, constants.MsgInternalServerError, nil)
}
