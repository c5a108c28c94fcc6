// Package middleware provides HTTP middleware components.
package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/yasinhessnawi1/authflow/internal/auth"
	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

const (
	corsAllowMethods = "GET, POST, PUT, OPTIONS"
	corsAllowHeaders = "Accept, Authorization, Content-Type, X-Request-ID"
	corsMaxAge       = "300"
)

// SecurityHeaders adds security-related HTTP headers to responses. HSTS is
// only sent when hsts is true.
func SecurityHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			h.Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			h.Set(constants.HeaderXXSSProtection, constants.XSSProtectionBlock)
			h.Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictSame)
			h.Set(constants.HeaderContentSecurityPolicy, constants.CSPDefaultNone)
			h.Set(constants.HeaderCacheControl, constants.CacheControlNoStore)
			if hsts {
				h.Set(constants.HeaderStrictTransport, constants.HSTSOneYear)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS handles Cross-Origin Resource Sharing for the configured origins.
// A "*" entry allows any origin; the request origin is echoed back so
// credentialed requests keep working.
func CORS(cfg config.CORSSettings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && originAllowed(cfg.AllowedOrigins, origin)

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			// Preflight requests stop here
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
					w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
					w.Header().Set("Access-Control-Max-Age", corsMaxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowedOrigins []string, origin string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || strings.EqualFold(strings.TrimSuffix(allowedOrigin, "/"), origin) {
			return true
		}
	}
	return false
}

// RequestLogger logs every completed request with its status and latency.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			requestID, _ := auth.GetRequestID(r)
			utils.LogHTTPRequest(requestID, r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent(), status, time.Since(start))
		})
	}
}
