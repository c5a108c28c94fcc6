package middleware

import (
	"net/http"

	"github.com/yasinhessnawi1/authflow/internal/auth"
)

// RequireSession is a middleware that requires a live session token. The
// resolver is normally the AuthService.
func RequireSession(resolver auth.SessionResolver) func(http.Handler) http.Handler {
	provider := auth.NewSessionAuthProvider(resolver)
	return auth.RequireAuth(provider)
}

// OptionalSession attaches the caller's identity when a live session token is
// presented and lets the request through either way.
func OptionalSession(resolver auth.SessionResolver) func(http.Handler) http.Handler {
	provider := auth.NewSessionAuthProvider(resolver)
	return auth.OptionalAuth(provider)
}
