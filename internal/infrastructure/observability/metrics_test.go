package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.GatewayRequestsTotal.WithLabelValues("stripe", "process_payment", "success").Inc()
	m.WebhookVerifications.WithLabelValues("paystack", "invalid").Inc()
	m.ConfiguredGateways.Set(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("stripe", "process_payment", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConfiguredGateways))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "test_gateway_requests_total")
	assert.Contains(t, names, "test_webhook_verifications_total")
	assert.Contains(t, names, "test_configured_gateways")
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics("dup", reg)

	assert.Panics(t, func() { NewMetrics("dup", reg) })
}
