package controller

import (
	"time"

	"github.com/cassiomorais/paygate/internal/infrastructure/config"
	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/paygate/internal/middleware"
	"github.com/cassiomorais/paygate/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	GatewayService *service.GatewayService
	// RedisClient is optional; readiness pings it when set.
	RedisClient redis.UniversalClient
	// Metrics and Registry are optional; /metrics is served only with a Registry.
	Metrics      *observability.Metrics
	Registry     *prometheus.Registry
	Logger       zerolog.Logger
	CORSConfig   config.CORSConfig
	APIKeys      []string
	RateLimit    config.RateLimitConfig
	LimitCounter httprate.LimitCounter
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(customMW.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", customMW.APIKeyHeader, "Stripe-Signature", "X-Paystack-Signature"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.SecurityHeaders())
	if deps.Metrics != nil {
		r.Use(customMW.Metrics(deps.Metrics))
	}

	healthH := NewHealthController(deps.GatewayService, deps.RedisClient)
	gatewayH := NewGatewayController(deps.GatewayService)
	paymentH := NewPaymentController(deps.GatewayService)
	webhookH := NewWebhookController(deps.GatewayService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Providers authenticate webhooks with signatures, not API keys.
	r.Post("/webhooks/{gateway}", webhookH.Receive)

	r.Route("/api/v1", func(r chi.Router) {
		// Browser redirect from hosted checkout; carries no API key.
		r.Get("/payments/{gateway}/callback", paymentH.Callback)

		r.Group(func(r chi.Router) {
			r.Use(customMW.RequireAPIKey(deps.APIKeys))
			if deps.RateLimit.Enabled {
				r.Use(customMW.RateLimit(customMW.RateLimitOptions{
					Requests: deps.RateLimit.Requests,
					Window:   deps.RateLimit.Window,
					Counter:  deps.LimitCounter,
					Metrics:  deps.Metrics,
				}))
			}

			// Gateways
			r.Get("/gateways", gatewayH.List)
			r.Get("/gateways/configuration", gatewayH.Configuration)
			r.Get("/gateways/{gateway}", gatewayH.Get)

			// Payments
			r.Post("/payments/{gateway}/process", paymentH.ProcessPayment)
			r.Post("/payments/{gateway}/intents", paymentH.CreatePaymentIntent)
			r.Post("/payments/{gateway}/refunds", paymentH.ProcessRefund)
			r.Get("/payments/{gateway}/{id}/status", paymentH.GetPaymentStatus)
		})
	})

	return r
}
