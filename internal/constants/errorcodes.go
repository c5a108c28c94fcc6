// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines machine-readable error codes and the
// user-facing messages of the auth endpoints.
package constants

// Error Codes sent in the error envelope.
const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeInternalError      = "internal_error"
	CodeValidationError    = "validation_error"
	CodeDuplicateResource  = "duplicate_resource"
	CodeInvalidCredentials = "invalid_credentials"
	CodeTokenExpired       = "token_expired"
	CodeTokenInvalid       = "token_invalid"
	CodeUpstreamFailure    = "upstream_failure"
	CodeRateLimited        = "rate_limited"
	CodeServiceUnavailable = "service_unavailable"
)

// Auth messages.
const (
	MsgUserExists           = "User already exists"
	MsgMissingCredentials   = "Please provide both email and password"
	MsgInvalidCredentials   = "The email or password you entered is incorrect"
	MsgNotAuthorized        = "Not authorized to access this route"
	MsgUserNotFound         = "User not found"
	MsgLogoutSuccess        = "User logged out successfully"
	MsgProvideEmail         = "Please provide an email"
	MsgNoUserWithEmail      = "No user with that email"
	MsgResetGeneric         = "If an account with that email exists, a reset link has been sent"
	MsgEmailSent            = "Email sent"
	MsgEmailSentCheckLogs   = "Email sent (check server logs for reset URL)"
	MsgEmailNotSent         = "Email could not be sent"
	MsgInvalidResetToken    = "Invalid token"
	MsgPasswordResetSuccess = "Password reset successful"
	MsgCheckUserDisabled    = "This endpoint is disabled"
	MsgDirectResetFields    = "Please provide email, token and password"
	MsgRateLimited          = "Too many requests, please try again later"
	MsgInvalidJSON          = "Invalid JSON in request body"
	MsgRequestBodyTooLarge  = "Request body too large"
	MsgValidationFailed     = "Validation failed"
	MsgInternalServerError  = "An internal server error occurred"
	MsgMethodNotAllowed     = "Method not allowed"
	MsgResourceNotFound     = "The requested resource could not be found"
	MsgServiceUnhealthy     = "Service is not healthy"
	MsgResetEmailSubject    = "Password reset token"
	MsgResetEmailBodyPrefix = "You are receiving this email because you (or someone else) has requested the reset of a password. Please click on the following link to reset your password:"
)
