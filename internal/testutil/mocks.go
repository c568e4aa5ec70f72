package testutil

import (
	"context"
	"sync"

	"github.com/cassiomorais/paygate/internal/providers"
)

// --- Gateway Adapter Mock ---

// MockAdapter is a configurable providers.Adapter. Unset Func fields return a
// success envelope echoing the request.
type MockAdapter struct {
	name string

	mu    sync.Mutex
	calls map[string]int

	ProcessPaymentFunc      func(ctx context.Context, req providers.PaymentRequest) *providers.Result
	CreatePaymentIntentFunc func(ctx context.Context, req providers.PaymentRequest) *providers.Result
	ProcessRefundFunc       func(ctx context.Context, req providers.RefundRequest) *providers.Result
	GetPaymentStatusFunc    func(ctx context.Context, id string) *providers.Result
	VerifyWebhookFunc       func(ctx context.Context, req providers.WebhookRequest) providers.WebhookVerification

	Currencies     []string
	PaymentMethods []string
}

func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{
		name:           name,
		calls:          make(map[string]int),
		Currencies:     []string{"USD"},
		PaymentMethods: []string{"card"},
	}
}

func (m *MockAdapter) Name() string { return m.name }

func (m *MockAdapter) ProcessPayment(ctx context.Context, req providers.PaymentRequest) *providers.Result {
	m.record("ProcessPayment")
	if m.ProcessPaymentFunc != nil {
		return m.ProcessPaymentFunc(ctx, req)
	}
	return providers.NewSuccess(m.name, req)
}

func (m *MockAdapter) CreatePaymentIntent(ctx context.Context, req providers.PaymentRequest) *providers.Result {
	m.record("CreatePaymentIntent")
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, req)
	}
	return providers.NewSuccess(m.name, req)
}

func (m *MockAdapter) ProcessRefund(ctx context.Context, req providers.RefundRequest) *providers.Result {
	m.record("ProcessRefund")
	if m.ProcessRefundFunc != nil {
		return m.ProcessRefundFunc(ctx, req)
	}
	return providers.NewSuccess(m.name, req)
}

func (m *MockAdapter) GetPaymentStatus(ctx context.Context, id string) *providers.Result {
	m.record("GetPaymentStatus")
	if m.GetPaymentStatusFunc != nil {
		return m.GetPaymentStatusFunc(ctx, id)
	}
	return providers.NewSuccess(m.name, map[string]any{"id": id, "status": "succeeded"})
}

func (m *MockAdapter) VerifyWebhook(ctx context.Context, req providers.WebhookRequest) providers.WebhookVerification {
	m.record("VerifyWebhook")
	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(ctx, req)
	}
	if req.Signature == "" {
		return providers.WebhookVerification{IsValid: false, Error: "missing signature"}
	}
	return providers.WebhookVerification{IsValid: true, Event: string(req.Body)}
}

func (m *MockAdapter) SupportedCurrencies() []string     { return m.Currencies }
func (m *MockAdapter) SupportedPaymentMethods() []string { return m.PaymentMethods }

// Calls returns how many times method was invoked.
func (m *MockAdapter) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockAdapter) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

// NewFactory returns a factory holding only the given adapters.
func NewFactory(adapters ...providers.Adapter) *providers.Factory {
	return providers.NewFactory(providers.Config{}, providers.WithAdapters(adapters...))
}
