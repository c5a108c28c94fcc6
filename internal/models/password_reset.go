package models

// ForgotPasswordRequest is the body of the forgot-password endpoint.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of the reset-password endpoint. The
// secret travels in the URL path.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,password"`
}

// DirectResetPasswordRequest resets a password for an email, proven by the
// emailed reset secret.
type DirectResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Token    string `json:"token" validate:"required,hexadecimal,max=128"`
	Password string `json:"password" validate:"required,password"`
}

// CheckUserRequest is the body of the check-user endpoint.
type CheckUserRequest struct {
	Email string `json:"email"`
}

// CheckUserResponse reports whether an account exists for an email.
type CheckUserResponse struct {
	Success bool `json:"success"`
	Exists  bool `json:"exists"`
}

// ForgotPasswordResult describes what happened to a forgot-password request.
type ForgotPasswordResult struct {
	// Delivered is false when no account matched and the generic reply was used.
	Delivered bool
	// Logged is true when the reset link went to the server log instead of email.
	Logged bool
}

// DirectResetResponse is returned by the direct reset endpoint.
type DirectResetResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
}
