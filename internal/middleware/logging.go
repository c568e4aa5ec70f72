package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger puts a request-scoped zerolog logger on the context and logs
// one line per finished request. It expects chi's RequestID to run first.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.With().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			ww := wrapStatus(w)
			next.ServeHTTP(ww, r.WithContext(reqLogger.WithContext(r.Context())))

			event := reqLogger.Info()
			switch {
			case ww.statusCode >= http.StatusInternalServerError:
				event = reqLogger.Error()
			case ww.statusCode >= http.StatusBadRequest:
				event = reqLogger.Warn()
			}
			event.
				Str("route", routePattern(r)).
				Int("status", ww.statusCode).
				Int("bytes", ww.bytes).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request completed")
		})
	}
}
