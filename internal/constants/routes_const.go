package constants

// Base Routes
const (
	APIBasePath  = "/api"
	HealthPath   = "/health"
	AuthBasePath = "/auth"
)

// Authentication Routes, relative to APIBasePath + AuthBasePath.
const (
	AuthRegisterPath       = "/register"
	AuthLoginPath          = "/login"
	AuthLogoutPath         = "/logout"
	AuthMePath             = "/me"
	AuthForgotPasswordPath = "/forgotpassword"
	AuthResetPasswordPath  = "/resetpassword/{resettoken}"
	AuthCheckUserPath      = "/check-user"
	AuthDirectResetPath    = "/direct-reset-password"
)

// URL parameters.
const ParamResetToken = "resettoken"

// ResetPasswordClientPath is the frontend page a reset link opens.
const ResetPasswordClientPath = "/reset-password/"
