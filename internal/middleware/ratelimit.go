package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	"github.com/go-chi/httprate"
)

// RateLimitOptions configures the sliding-window limiter.
type RateLimitOptions struct {
	Requests int
	Window   time.Duration
	// Counter stores window counts. Nil keeps them in process memory.
	Counter httprate.LimitCounter
	Metrics *observability.Metrics
}

// RateLimit limits each caller to Requests per Window. Callers are keyed by
// API key when RequireAPIKey ran earlier in the chain, otherwise by IP.
func RateLimit(opts RateLimitOptions) func(http.Handler) http.Handler {
	limitOpts := []httprate.Option{
		httprate.WithKeyFuncs(callerKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if opts.Metrics != nil {
				opts.Metrics.RateLimitRejections.WithLabelValues(callerKeyType(r)).Inc()
			}
			if w.Header().Get("Retry-After") == "" {
				w.Header().Set("Retry-After", strconv.Itoa(int(opts.Window.Seconds())))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "rate limit exceeded",
				"code":  "rate_limit",
			})
		}),
	}
	if opts.Counter != nil {
		limitOpts = append(limitOpts, httprate.WithLimitCounter(opts.Counter))
	}

	return httprate.Limit(opts.Requests, opts.Window, limitOpts...)
}

func callerKey(r *http.Request) (string, error) {
	if id, ok := GetAPIKeyID(r.Context()); ok {
		return "key:" + id, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

func callerKeyType(r *http.Request) string {
	if _, ok := GetAPIKeyID(r.Context()); ok {
		return "api_key"
	}
	return "ip"
}
