package auth

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// Context keys for storing authenticated user information and request metadata.
const (
	UserIDContextKey    ContextKey = constants.UserIDContextKey
	EmailContextKey     ContextKey = constants.EmailContextKey
	SessionIDContextKey ContextKey = constants.SessionIDContextKey
	RequestIDContextKey ContextKey = constants.RequestIDContextKey
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// SessionResolver turns a presented session token into an Identity. It fails
// when the token is unverifiable, its session is revoked or expired, or its
// user no longer exists.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*Identity, error)
}

// AuthProvider defines methods for different authentication mechanisms.
type AuthProvider interface {
	// Authenticate checks the request and returns the caller if valid.
	Authenticate(r *http.Request) (*Identity, error)
}

// SessionAuthProvider authenticates requests carrying a session token.
type SessionAuthProvider struct {
	resolver SessionResolver
}

// NewSessionAuthProvider creates a SessionAuthProvider.
func NewSessionAuthProvider(resolver SessionResolver) *SessionAuthProvider {
	return &SessionAuthProvider{
		resolver: resolver,
	}
}

// Authenticate implements the AuthProvider interface.
func (p *SessionAuthProvider) Authenticate(r *http.Request) (*Identity, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, utils.NewUnauthorizedError("")
	}
	return p.resolver.ResolveSession(r.Context(), token)
}

// ExtractToken returns the session token of a request. The cookie wins over
// the Authorization header; a cleared cookie counts as absent.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(constants.SessionCookieName); err == nil {
		if cookie.Value != "" && cookie.Value != constants.ClearedCookieValue {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if strings.HasPrefix(authHeader, constants.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, constants.BearerPrefix))
	}

	return ""
}

// AuthMiddleware wraps an HTTP handler with authentication. The first
// provider to succeed attaches its Identity to the request context; if none
// does, the request is rejected.
func AuthMiddleware(next http.Handler, providers ...AuthProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ensureRequestID(r)

		var lastErr error = utils.NewUnauthorizedError("")
		for _, provider := range providers {
			identity, err := provider.Authenticate(r.WithContext(ctx))
			if err == nil {
				log.Debug().
					Str(constants.UserIDContextKey, identity.UserID).
					Str(constants.RequestIDContextKey, requestIDFrom(ctx)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("User authenticated")

				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
				return
			}
			lastErr = err
		}

		log.Info().
			Err(lastErr).
			Str(constants.RequestIDContextKey, requestIDFrom(ctx)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Authentication failed")

		utils.WriteError(w, lastErr)
	})
}

// RequireAuth is a middleware that requires authentication.
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthMiddleware(next, providers...)
	}
}

// OptionalAuth attempts authentication but continues even if it fails.
func OptionalAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ensureRequestID(r)

			for _, provider := range providers {
				identity, err := provider.Authenticate(r.WithContext(ctx))
				if err == nil {
					ctx = WithIdentity(ctx, identity)
					break
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a copy of ctx carrying the identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDContextKey, identity.UserID)
	ctx = context.WithValue(ctx, EmailContextKey, identity.Email)
	return context.WithValue(ctx, SessionIDContextKey, identity.SessionID)
}

func ensureRequestID(r *http.Request) context.Context {
	ctx := r.Context()
	if requestIDFrom(ctx) != "" {
		return ctx
	}

	requestID := chimiddleware.GetReqID(ctx)
	if requestID == "" {
		requestID = r.Header.Get(constants.HeaderXRequestID)
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}

func requestIDFrom(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDContextKey).(string)
	return requestID
}

// GetUserID extracts the user ID from the request context.
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDContextKey).(string)
	return userID, ok && userID != ""
}

// GetEmail extracts the email from the request context.
func GetEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(EmailContextKey).(string)
	return email, ok
}

// GetSessionID extracts the session id (jti) from the request context.
func GetSessionID(r *http.Request) (string, bool) {
	sessionID, ok := r.Context().Value(SessionIDContextKey).(string)
	return sessionID, ok && sessionID != ""
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) (string, bool) {
	if requestID := requestIDFrom(r.Context()); requestID != "" {
		return requestID, true
	}
	requestID := chimiddleware.GetReqID(r.Context())
	return requestID, requestID != ""
}
