package providers

import (
	"context"
	"encoding/json"
	"time"
)

// Gateway names accepted by the factory.
const (
	GatewayStripe   = "stripe"
	GatewayPaystack = "paystack"
)

// Error codes carried in the unified error envelope. Provider-native codes
// (card_declined, insufficient_funds, ...) are passed through as-is.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnknown            = "UNKNOWN_ERROR"
	CodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
)

// Codes given to provider rejections that arrive without a native code.
const (
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
)

// Adapter is the contract every provider integration satisfies. Methods never
// return Go errors or panic: failures come back as a Result with Success=false.
type Adapter interface {
	// Name returns the lower-case gateway name.
	Name() string
	// ProcessPayment charges or confirms a payment.
	ProcessPayment(ctx context.Context, req PaymentRequest) *Result
	// CreatePaymentIntent creates a provider-side pending payment.
	CreatePaymentIntent(ctx context.Context, req PaymentRequest) *Result
	// ProcessRefund refunds a payment in full or in part.
	ProcessRefund(ctx context.Context, req RefundRequest) *Result
	// GetPaymentStatus looks up a payment by its provider identifier.
	GetPaymentStatus(ctx context.Context, id string) *Result
	// VerifyWebhook authenticates a provider callback.
	VerifyWebhook(ctx context.Context, req WebhookRequest) WebhookVerification
	// SupportedCurrencies is informational; the provider decides what it accepts.
	SupportedCurrencies() []string
	// SupportedPaymentMethods is informational as well.
	SupportedPaymentMethods() []string
}

// PaymentRequest is the provider-neutral payment input. Stripe expects Amount
// in minor units; Paystack expects major units and converts it.
type PaymentRequest struct {
	Amount          float64        `json:"amount" validate:"gt=0"`
	Currency        string         `json:"currency" validate:"required,len=3"`
	CustomerEmail   string         `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Description     string         `json:"description,omitempty"`
	PaymentMethodID string         `json:"paymentMethodId,omitempty"`
	PaymentIntentID string         `json:"paymentIntentId,omitempty"`
	Channel         string         `json:"channel,omitempty"`
	CallbackURL     string         `json:"callbackUrl,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// RefundRequest identifies the payment to refund. Stripe reads
// PaymentIntentID, Paystack reads TransactionReference. A zero Amount
// refunds the full payment.
type RefundRequest struct {
	PaymentIntentID      string         `json:"paymentIntentId,omitempty"`
	TransactionReference string         `json:"transactionReference,omitempty"`
	Amount               float64        `json:"amount,omitempty"`
	Reason               string         `json:"reason,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
}

// WebhookRequest carries the exact bytes that were signed.
type WebhookRequest struct {
	Body      []byte
	Signature string
}

type WebhookVerification struct {
	IsValid bool   `json:"isValid"`
	Event   any    `json:"event,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the unified envelope returned by every adapter operation.
type Result struct {
	Success         bool         `json:"success"`
	Gateway         string       `json:"gateway"`
	GatewayResponse any          `json:"gatewayResponse,omitempty"`
	Error           *ErrorDetail `json:"error,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
	UnifiedID       string       `json:"unifiedId"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// ErrorCode returns the failure code, or "" for successful results.
func (r *Result) ErrorCode() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// Decode re-reads GatewayResponse into dst. Handy for callers that need typed
// access to a provider payload.
func (r *Result) Decode(dst any) error {
	raw, err := json.Marshal(r.GatewayResponse)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// Features is the static feature matrix reported for a gateway.
type Features struct {
	Refunds        bool `json:"refunds"`
	Webhooks       bool `json:"webhooks"`
	PaymentIntents bool `json:"paymentIntents"`
	StatusChecking bool `json:"statusChecking"`
}

type Capabilities struct {
	Name                    string   `json:"name"`
	SupportedCurrencies     []string `json:"supportedCurrencies"`
	SupportedPaymentMethods []string `json:"supportedPaymentMethods"`
	Features                Features `json:"features"`
}

var allFeatures = Features{
	Refunds:        true,
	Webhooks:       true,
	PaymentIntents: true,
	StatusChecking: true,
}
