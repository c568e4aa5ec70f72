package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/cassiomorais/paygate/internal/controller"
	"github.com/cassiomorais/paygate/internal/infrastructure/config"
	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/paygate/internal/infrastructure/redis"
	"github.com/cassiomorais/paygate/internal/providers"
	"github.com/cassiomorais/paygate/internal/service"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Redis    *redis.Client
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Gateways *providers.Factory
	Service  *service.GatewayService
	Server   *http.Server

	tracer *sdktrace.TracerProvider
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	app := &App{Config: cfg, Logger: logger}

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			app.tracer = tp
			logger.Info().Msg("Tracing enabled")
		}
	}

	if cfg.Observability.EnableMetrics {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		app.Metrics = observability.NewMetrics(metricsNamespace, app.Registry)
		logger.Info().Msg("Metrics initialized")
	}

	var limitCounter httprate.LimitCounter
	if cfg.Redis.Enabled {
		redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		app.Redis = redisClient
		limitCounter = infraRedis.NewLimitCounter(redisClient, serviceName+":ratelimit")
		logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Connected to Redis")
	}

	app.Gateways = providers.NewFactory(gatewayConfig(cfg, app.Metrics, logger), providers.WithLogger(logger))
	logGatewayConfiguration(logger, cfg, app.Gateways)
	if app.Metrics != nil {
		app.Metrics.ConfiguredGateways.Set(float64(len(app.Gateways.AvailableGateways())))
	}

	app.Service = service.NewGatewayService(app.Gateways, app.Metrics, logger)

	router := controller.NewRouter(controller.RouterDeps{
		GatewayService: app.Service,
		RedisClient:    redisOrNil(app.Redis),
		Metrics:        app.Metrics,
		Registry:       app.Registry,
		Logger:         logger,
		CORSConfig:     cfg.Server.CORS,
		APIKeys:        cfg.Auth.APIKeys,
		RateLimit:      cfg.RateLimit,
		LimitCounter:   limitCounter,
	})

	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// Close releases everything New acquired. The HTTP server is shut down by
// the caller.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.tracer != nil {
		errs = append(errs, observability.Shutdown(ctx, a.tracer))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

func gatewayConfig(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) providers.Config {
	return providers.Config{
		Stripe: providers.StripeConfig{
			SecretKey:      cfg.Stripe.SecretKey,
			PublishableKey: cfg.Stripe.PublishableKey,
			WebhookSecret:  cfg.Stripe.WebhookSecret,
			APIURL:         cfg.Stripe.APIURL,
		},
		Paystack: providers.PaystackConfig{
			SecretKey:   cfg.Paystack.SecretKey,
			PublicKey:   cfg.Paystack.PublicKey,
			BaseURL:     cfg.Paystack.BaseURL,
			CallbackURL: cfg.App.PaystackCallbackURL(),
		},
		HTTPTimeout: cfg.Gateways.HTTPTimeout,
		Breaker: providers.BreakerSettings{
			ConsecutiveFailures: cfg.Gateways.CircuitBreakerThreshold,
			OpenTimeout:         cfg.Gateways.CircuitBreakerTimeout,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("gateway", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
				if metrics != nil {
					metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		},
	}
}

func logGatewayConfiguration(logger zerolog.Logger, cfg *config.Config, f *providers.Factory) {
	logger.Info().
		Str("stripe_secret_key", observability.MaskSecret(cfg.Stripe.SecretKey)).
		Str("paystack_secret_key", observability.MaskSecret(cfg.Paystack.SecretKey)).
		Strs("gateways", f.AvailableGateways()).
		Msg("Gateway credentials loaded")

	report := f.ValidateConfiguration()
	for _, w := range report.Warnings {
		logger.Warn().Msg(w)
	}
}

// redisOrNil keeps a nil *redis.Client from becoming a non-nil interface.
func redisOrNil(c *redis.Client) redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c
}
