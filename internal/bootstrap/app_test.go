package bootstrap

import (
	"bytes"
	"testing"
	"time"

	"github.com/cassiomorais/paygate/internal/infrastructure/config"
	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	"github.com/cassiomorais/paygate/internal/providers"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{BaseURL: "https://pay.example.com/"},
		Stripe:   config.StripeConfig{SecretKey: "sk_test_123456789", WebhookSecret: "whsec_1"},
		Paystack: config.PaystackConfig{SecretKey: "sk_test_paystack", BaseURL: "https://api.paystack.co"},
		Gateways: config.GatewaysConfig{
			HTTPTimeout:             10 * time.Second,
			CircuitBreakerThreshold: 3,
			CircuitBreakerTimeout:   time.Minute,
		},
	}
}

func TestGatewayConfig(t *testing.T) {
	cfg := testConfig()

	pc := gatewayConfig(cfg, nil, zerolog.Nop())

	assert.Equal(t, "sk_test_123456789", pc.Stripe.SecretKey)
	assert.Equal(t, "whsec_1", pc.Stripe.WebhookSecret)
	assert.Equal(t, "https://pay.example.com/api/v1/payments/paystack/callback", pc.Paystack.CallbackURL)
	assert.Equal(t, 10*time.Second, pc.HTTPTimeout)
	assert.Equal(t, uint32(3), pc.Breaker.ConsecutiveFailures)
	assert.Equal(t, time.Minute, pc.Breaker.OpenTimeout)
}

func TestGatewayConfig_BreakerStateFeedsGauge(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	var logs bytes.Buffer

	pc := gatewayConfig(testConfig(), metrics, zerolog.New(&logs))
	require.NotNil(t, pc.Breaker.OnStateChange)

	pc.Breaker.OnStateChange("paystack", gobreaker.StateClosed, gobreaker.StateOpen)

	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("paystack")))
	assert.Contains(t, logs.String(), `"to":"open"`)
}

func TestLogGatewayConfiguration_MasksSecrets(t *testing.T) {
	cfg := testConfig()
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	f := providers.NewFactory(gatewayConfig(cfg, nil, logger))
	logGatewayConfiguration(logger, cfg, f)

	assert.NotContains(t, logs.String(), "sk_test_123456789")
	assert.Contains(t, logs.String(), "stripe_secret_key")
}

func TestRedisOrNil(t *testing.T) {
	assert.Nil(t, redisOrNil(nil))
}
