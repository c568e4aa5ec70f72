package controller

import (
	"github.com/cassiomorais/paygate/internal/providers"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// PaymentRequest is the body of the process and intent endpoints. Amount and
// currency are checked by the adapter so failures come back in the unified
// envelope.
type PaymentRequest struct {
	Amount          float64        `json:"amount"`
	Currency        string         `json:"currency"`
	CustomerEmail   string         `json:"customerEmail,omitempty"`
	Description     string         `json:"description,omitempty" validate:"max=500"`
	PaymentMethodID string         `json:"paymentMethodId,omitempty" validate:"max=255"`
	PaymentIntentID string         `json:"paymentIntentId,omitempty" validate:"max=255"`
	Channel         string         `json:"channel,omitempty" validate:"max=32"`
	CallbackURL     string         `json:"callbackUrl,omitempty" validate:"omitempty,url"`
	Metadata        map[string]any `json:"metadata,omitempty" validate:"max=50"`
}

func (p PaymentRequest) toProvider() providers.PaymentRequest {
	return providers.PaymentRequest{
		Amount:          p.Amount,
		Currency:        p.Currency,
		CustomerEmail:   p.CustomerEmail,
		Description:     p.Description,
		PaymentMethodID: p.PaymentMethodID,
		PaymentIntentID: p.PaymentIntentID,
		Channel:         p.Channel,
		CallbackURL:     p.CallbackURL,
		Metadata:        p.Metadata,
	}
}

type RefundRequest struct {
	PaymentIntentID      string         `json:"paymentIntentId,omitempty" validate:"max=255"`
	TransactionReference string         `json:"transactionReference,omitempty" validate:"max=255"`
	Amount               float64        `json:"amount,omitempty"`
	Reason               string         `json:"reason,omitempty" validate:"max=500"`
	Metadata             map[string]any `json:"metadata,omitempty" validate:"max=50"`
}

func (r RefundRequest) toProvider() providers.RefundRequest {
	return providers.RefundRequest{
		PaymentIntentID:      r.PaymentIntentID,
		TransactionReference: r.TransactionReference,
		Amount:               r.Amount,
		Reason:               r.Reason,
		Metadata:             r.Metadata,
	}
}

type GatewayListResponse struct {
	Gateways []providers.Capabilities `json:"gateways"`
	Stats    providers.GatewayStats   `json:"stats"`
}

type WebhookAckResponse struct {
	Received bool   `json:"received"`
	Gateway  string `json:"gateway"`
}
