package service

import (
	"context"
	"time"

	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	"github.com/cassiomorais/paygate/internal/providers"
	"github.com/rs/zerolog"
)

// GatewayRegistry is the part of providers.Factory the service depends on.
type GatewayRegistry interface {
	GetGateway(name string) (providers.Adapter, error)
	GetGatewayCapabilities(name string) (providers.Capabilities, error)
	GetAllGatewayCapabilities() []providers.Capabilities
	ValidateConfiguration() providers.ConfigurationReport
	GetGatewayStats() providers.GatewayStats
}

// GatewayService dispatches unified operations to the adapter named by the
// caller and records how each call went. The only error it returns is an
// unsupported gateway; provider outcomes travel inside the Result envelope.
type GatewayService struct {
	gateways GatewayRegistry
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewGatewayService creates a GatewayService. metrics may be nil.
func NewGatewayService(gateways GatewayRegistry, metrics *observability.Metrics, logger zerolog.Logger) *GatewayService {
	return &GatewayService{
		gateways: gateways,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *GatewayService) ProcessPayment(ctx context.Context, gateway string, req providers.PaymentRequest) (*providers.Result, error) {
	return s.call(ctx, gateway, "process_payment", func(a providers.Adapter) *providers.Result {
		return a.ProcessPayment(ctx, req)
	})
}

func (s *GatewayService) CreatePaymentIntent(ctx context.Context, gateway string, req providers.PaymentRequest) (*providers.Result, error) {
	return s.call(ctx, gateway, "create_payment_intent", func(a providers.Adapter) *providers.Result {
		return a.CreatePaymentIntent(ctx, req)
	})
}

func (s *GatewayService) ProcessRefund(ctx context.Context, gateway string, req providers.RefundRequest) (*providers.Result, error) {
	return s.call(ctx, gateway, "process_refund", func(a providers.Adapter) *providers.Result {
		return a.ProcessRefund(ctx, req)
	})
}

func (s *GatewayService) GetPaymentStatus(ctx context.Context, gateway, id string) (*providers.Result, error) {
	return s.call(ctx, gateway, "get_payment_status", func(a providers.Adapter) *providers.Result {
		return a.GetPaymentStatus(ctx, id)
	})
}

// VerifyWebhook authenticates a provider callback. An invalid signature is a
// normal outcome, not an error.
func (s *GatewayService) VerifyWebhook(ctx context.Context, gateway string, req providers.WebhookRequest) (providers.WebhookVerification, error) {
	adapter, err := s.gateways.GetGateway(gateway)
	if err != nil {
		return providers.WebhookVerification{}, err
	}

	out := adapter.VerifyWebhook(ctx, req)

	result := "valid"
	if !out.IsValid {
		result = "invalid"
	}
	if s.metrics != nil {
		s.metrics.WebhookVerifications.WithLabelValues(adapter.Name(), result).Inc()
	}

	logger := s.loggerFrom(ctx)
	if out.IsValid {
		logger.Info().Str("gateway", adapter.Name()).Msg("webhook verified")
	} else {
		logger.Warn().Str("gateway", adapter.Name()).Str("reason", out.Error).Msg("webhook rejected")
	}

	return out, nil
}

func (s *GatewayService) Capabilities(gateway string) (providers.Capabilities, error) {
	return s.gateways.GetGatewayCapabilities(gateway)
}

func (s *GatewayService) AllCapabilities() []providers.Capabilities {
	return s.gateways.GetAllGatewayCapabilities()
}

func (s *GatewayService) Configuration() providers.ConfigurationReport {
	return s.gateways.ValidateConfiguration()
}

func (s *GatewayService) Stats() providers.GatewayStats {
	return s.gateways.GetGatewayStats()
}

func (s *GatewayService) call(ctx context.Context, gateway, op string, fn func(providers.Adapter) *providers.Result) (*providers.Result, error) {
	adapter, err := s.gateways.GetGateway(gateway)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := fn(adapter)
	elapsed := time.Since(start)

	outcome := "success"
	if !res.Success {
		outcome = outcomeFor(res.ErrorCode())
	}

	if s.metrics != nil {
		s.metrics.GatewayRequestsTotal.WithLabelValues(adapter.Name(), op, outcome).Inc()
		s.metrics.GatewayRequestDuration.WithLabelValues(adapter.Name(), op).Observe(elapsed.Seconds())
	}

	logger := s.loggerFrom(ctx)
	event := logger.Info()
	if !res.Success {
		event = logger.Warn().Str("code", res.ErrorCode()).Str("error", res.Error.Message)
	}
	event.
		Str("gateway", adapter.Name()).
		Str("operation", op).
		Str("unified_id", res.UnifiedID).
		Dur("duration", elapsed).
		Msg("gateway operation completed")

	return res, nil
}

// outcomeFor keeps the metric label set small: provider-native codes are
// grouped under "declined".
func outcomeFor(code string) string {
	switch code {
	case providers.CodeValidation:
		return "validation_error"
	case providers.CodeGatewayUnavailable:
		return "unavailable"
	case providers.CodeUnknown:
		return "error"
	default:
		return "declined"
	}
}

// loggerFrom prefers the request-scoped logger installed by the logging
// middleware.
func (s *GatewayService) loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}
