package testutil

import (
	"github.com/cassiomorais/paygate/internal/providers"
)

func NewPaymentRequest(amount float64, currency string) providers.PaymentRequest {
	return providers.PaymentRequest{
		Amount:        amount,
		Currency:      currency,
		CustomerEmail: "customer@example.com",
		Description:   "test payment",
		Metadata:      map[string]any{"order_id": "order-123"},
	}
}

// DeclinedResult mimics a provider rejection with a native code.
func DeclinedResult(gateway string) *providers.Result {
	return providers.NewFailure(gateway, "Your card was declined.", "card_declined", map[string]any{"declineCode": "generic_decline"})
}

func ValidationFailure(gateway, message string) *providers.Result {
	return providers.NewFailure(gateway, message, providers.CodeValidation, []string{message})
}

func UnavailableResult(gateway string) *providers.Result {
	return providers.NewFailure(gateway, "circuit breaker is open", providers.CodeGatewayUnavailable, nil)
}
