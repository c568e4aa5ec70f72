package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request. Once chi has routed the request
// the span is renamed to "METHOD /route/{pattern}".
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			span := trace.SpanFromContext(r.Context())
			span.SetName(spanName(r))
			span.SetAttributes(attribute.String("http.route", routePattern(r)))
		})
		// otelhttp renames the span itself when chi sets r.Pattern, so the
		// formatter has to agree with the name set above.
		return otelhttp.NewHandler(named, "http.request",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return spanName(r)
			}),
		)
	}
}

func spanName(r *http.Request) string {
	return r.Method + " " + routePattern(r)
}
