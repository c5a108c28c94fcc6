package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/metrics"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// limiterTTL is how long an idle client's bucket is kept.
const limiterTTL = time.Hour

// NewLimiter creates a per-IP token bucket limiter from the settings. It
// returns nil when rate limiting is disabled.
func NewLimiter(cfg config.RateLimitSettings) *limiter.Limiter {
	if cfg.Disabled {
		return nil
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = constants.DefaultRateLimitRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = constants.DefaultRateLimitBurst
	}

	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: limiterTTL})
	lmt.SetBurst(burst)
	// Forwarding headers only reach RemoteAddr when the server trusts its proxy
	lmt.SetIPLookups([]string{"RemoteAddr"})
	lmt.SetMethods([]string{http.MethodPost, http.MethodPut})

	return lmt
}

// RateLimit is middleware that limits the rate of requests from a single
// client. Rejected requests get a 429 in the standard error envelope. A nil
// limiter lets every request through.
func RateLimit(lmt *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if lmt == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpErr := tollbooth.LimitByRequest(lmt, w, r); httpErr != nil {
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}

				log.Warn().
					Str("remote_addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("Rate limit exceeded")
				metrics.RecordRateLimited(route)

				w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(lmt)))
				utils.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(lmt *limiter.Limiter) int {
	if max := lmt.GetMax(); max > 0 && max < 1 {
		return int(1/max + 0.5)
	}
	return 1
}
