package providers

import (
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// BreakerSettings tune the per-gateway circuit breaker wrapped around the
// provider HTTP transport.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker. Zero disables tripping.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

var errUpstreamStatus = errors.New("upstream server error")

// breakerTransport counts transport errors and 5xx answers as failures and
// fails fast while open. It never retries.
type breakerTransport struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

func newBreakerTransport(name string, next http.RoundTripper, s BreakerSettings) *breakerTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &breakerTransport{
		next: next,
		cb: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     s.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return s.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= s.ConsecutiveFailures
			},
			OnStateChange: s.OnStateChange,
		}),
	}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.cb.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errUpstreamStatus
		}
		return resp, nil
	})
	if errors.Is(err, errUpstreamStatus) {
		return resp, nil
	}
	return resp, err
}

// NewHTTPClient builds the client a gateway adapter talks to its provider
// with: otel spans around a circuit breaker around the base transport. The
// client timeout is the only deadline applied to provider calls.
func NewHTTPClient(name string, timeout time.Duration, base http.RoundTripper, s BreakerSettings) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(newBreakerTransport(name, base, s)),
	}
}

func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
