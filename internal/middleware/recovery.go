package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/auth"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					// Let net/http abort the connection
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					requestID, _ := auth.GetRequestID(r)
					utils.LogPanic(rec, debug.Stack())
					log.Error().
						Str(constants.RequestIDContextKey, requestID).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Str("remote_addr", r.RemoteAddr).
						Msg("Panic recovered in request handler")

					utils.Error(
						w,
						http.StatusInternalServerError,
						constants.CodeInternalError,
						constants.MsgInternalServerError,
						nil,
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
