package constants

// Context Key Names
const (
	UserIDContextKey    = "user_id"
	EmailContextKey     = "email"
	SessionIDContextKey = "session_id"
	RequestIDContextKey = "request_id"
)

// Password and field limits
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
	MaxNameLength     = 100
	MaxEmailLength    = 255
)

// Reset secret entropy in bytes.
const ResetSecretBytes = 20

// Cookie
const (
	// SessionCookieName is the http-only cookie carrying the session token.
	SessionCookieName = "token"

	// ClearedCookieValue is written on logout.
	ClearedCookieValue = "none"
)
