package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mpraski/secret-vault/identity"
)

type (
	KeyFunc func(*http.Request) string

	Middleware func(http.Handler) http.Handler

	Config struct {
		Limit    uint64
		Duration time.Duration
	}
)

const (
	rateLimitingState         = "Rate-Limiting-State"
	rateLimitingExpiresAt     = "Rate-Limiting-Expires-At"
	rateLimitingTotalRequests = "Rate-Limiting-Total-Requests"
)

// IdentityKey buckets requests by caller identity, falling back to the
// remote address for anonymous callers so failed-auth floods are throttled
// per source.
func IdentityKey(r *http.Request) string {
	if i := identity.FromContext(r.Context()); !i.IsAnonymous() {
		return "ratelimit:" + i.String()
	}

	return "ratelimit:" + r.RemoteAddr
}

func NewMiddleware(strategy Strategy, keyFunc KeyFunc, cfg Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l, err := strategy.Run(r.Context(), Request{
				Key:      keyFunc(r),
				Limit:    cfg.Limit,
				Duration: cfg.Duration,
			})
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			e := w.Header()

			e.Set(rateLimitingState, l.State.String())
			e.Set(rateLimitingExpiresAt, l.ExpiresAt.Format(time.RFC3339))
			e.Set(rateLimitingTotalRequests, strconv.FormatUint(l.TotalRequests, 10))

			if l.State == Deny {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
