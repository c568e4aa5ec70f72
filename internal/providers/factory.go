package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	domainErrors "github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/rs/zerolog"
)

const defaultHTTPTimeout = 30 * time.Second

// Config holds what the factory needs to build the built-in adapters. An
// adapter is registered iff its secret key is set.
type Config struct {
	Stripe   StripeConfig
	Paystack PaystackConfig

	// HTTPTimeout bounds every provider call.
	HTTPTimeout time.Duration
	Breaker     BreakerSettings
	// Transport is the base round tripper under the breaker. Nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
}

type Option func(*Factory)

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// WithAdapters registers extra adapters after the configured ones.
func WithAdapters(adapters ...Adapter) Option {
	return func(f *Factory) { f.extra = append(f.extra, adapters...) }
}

type ConfigurationReport struct {
	IsValid           bool     `json:"isValid"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
	AvailableGateways []string `json:"availableGateways"`
}

type GatewayStats struct {
	TotalGateways       int                 `json:"totalGateways"`
	AvailableGateways   []string            `json:"availableGateways"`
	ConfigurationStatus ConfigurationReport `json:"configurationStatus"`
}

// Factory is the gateway registry. It is built once at startup and is
// read-only afterwards, so lookups need no locking.
type Factory struct {
	adapters map[string]Adapter
	order    []string
	cfg      Config
	extra    []Adapter
	logger   zerolog.Logger
}

func NewFactory(cfg Config, opts ...Option) *Factory {
	f := &Factory{
		adapters: make(map[string]Adapter),
		cfg:      cfg,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	if cfg.Stripe.SecretKey != "" {
		sc := cfg.Stripe
		if sc.HTTPClient == nil {
			sc.HTTPClient = NewHTTPClient(GatewayStripe, timeout, cfg.Transport, cfg.Breaker)
		}
		sc.Logger = f.logger
		f.Register(NewStripeAdapter(sc))
	}

	if cfg.Paystack.SecretKey != "" {
		pc := cfg.Paystack
		if pc.HTTPClient == nil {
			pc.HTTPClient = NewHTTPClient(GatewayPaystack, timeout, cfg.Transport, cfg.Breaker)
		}
		pc.Logger = f.logger
		f.Register(NewPaystackAdapter(pc))
	}

	for _, a := range f.extra {
		f.Register(a)
	}
	f.extra = nil

	f.logger.Info().Strs("gateways", f.AvailableGateways()).Msg("payment gateways registered")
	return f
}

// Register adds or replaces an adapter under its lower-cased name. It is
// meant for construction time only.
func (f *Factory) Register(a Adapter) {
	name := strings.ToLower(a.Name())
	if _, exists := f.adapters[name]; !exists {
		f.order = append(f.order, name)
	}
	f.adapters[name] = a
}

// GetGateway resolves an adapter by name, case-insensitively. The returned
// error wraps ErrGatewayNotSupported for unknown and unconfigured names alike.
func (f *Factory) GetGateway(name string) (Adapter, error) {
	a, ok := f.adapters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("gateway %q: %w", name, domainErrors.ErrGatewayNotSupported)
	}
	return a, nil
}

func (f *Factory) IsGatewayAvailable(name string) bool {
	_, err := f.GetGateway(name)
	return err == nil
}

// AvailableGateways returns registered names in registration order.
func (f *Factory) AvailableGateways() []string {
	return append([]string{}, f.order...)
}

func (f *Factory) GetGatewayCapabilities(name string) (Capabilities, error) {
	a, err := f.GetGateway(name)
	if err != nil {
		return Capabilities{}, err
	}
	return capabilitiesOf(a), nil
}

func (f *Factory) GetAllGatewayCapabilities() []Capabilities {
	caps := make([]Capabilities, 0, len(f.order))
	for _, name := range f.order {
		caps = append(caps, capabilitiesOf(f.adapters[name]))
	}
	return caps
}

// ValidateConfiguration summarizes credential health. It only ever produces
// warnings; Errors is always empty and IsValid always true.
func (f *Factory) ValidateConfiguration() ConfigurationReport {
	warnings := []string{}

	if f.cfg.Stripe.SecretKey == "" {
		warnings = append(warnings, "Stripe secret key not configured (STRIPE_SECRET_KEY); Stripe gateway unavailable")
	} else if f.cfg.Stripe.WebhookSecret == "" {
		warnings = append(warnings, "Stripe webhook secret not configured (STRIPE_WEBHOOK_SECRET); Stripe webhooks will be rejected")
	}
	if f.cfg.Paystack.SecretKey == "" {
		warnings = append(warnings, "Paystack secret key not configured (PAYSTACK_SECRET_KEY); Paystack gateway unavailable")
	}
	if len(f.order) == 0 {
		warnings = append(warnings, "No payment gateways configured")
	}

	errs := []string{}
	return ConfigurationReport{
		IsValid:           len(errs) == 0,
		Errors:            errs,
		Warnings:          warnings,
		AvailableGateways: f.AvailableGateways(),
	}
}

// GetGatewayStats is recomputed on every call.
func (f *Factory) GetGatewayStats() GatewayStats {
	return GatewayStats{
		TotalGateways:       len(f.order),
		AvailableGateways:   f.AvailableGateways(),
		ConfigurationStatus: f.ValidateConfiguration(),
	}
}

func capabilitiesOf(a Adapter) Capabilities {
	return Capabilities{
		Name:                    strings.ToLower(a.Name()),
		SupportedCurrencies:     a.SupportedCurrencies(),
		SupportedPaymentMethods: a.SupportedPaymentMethods(),
		Features:                allFeatures,
	}
}
