package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
)

// StripeConfig configures the Stripe adapter. APIURL overrides the API host
// (stripe-mock, tests); HTTPClient defaults to a plain client.
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	APIURL         string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
}

// StripeAdapter talks to Stripe through the official SDK. Amounts must be
// whole minor units already and currencies are sent lower-cased.
type StripeAdapter struct {
	api            *client.API
	publishableKey string
	webhookSecret  string
	logger         zerolog.Logger
}

type StripePaymentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	ClientSecret    string `json:"clientSecret,omitempty"`
	PublishableKey  string `json:"publishableKey,omitempty"`
	RequiresAction  bool   `json:"requiresAction"`
	NextAction      any    `json:"nextAction,omitempty"`
}

type StripeRefundResponse struct {
	RefundID        string `json:"refundId"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Reason          string `json:"reason,omitempty"`
}

type StripeStatusResponse struct {
	PaymentIntentID  string        `json:"paymentIntentId"`
	Status           string        `json:"status"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Created          time.Time     `json:"created"`
	LastPaymentError *stripe.Error `json:"lastPaymentError,omitempty"`
}

func NewStripeAdapter(cfg StripeConfig) *StripeAdapter {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 80 * time.Second}
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = stripe.APIURL
	}

	leveled := &stripeLogger{logger: cfg.Logger.With().Str("gateway", GatewayStripe).Logger()}
	backendConfig := func(url string) *stripe.BackendConfig {
		return &stripe.BackendConfig{
			URL:               stripe.String(url),
			HTTPClient:        httpClient,
			LeveledLogger:     leveled,
			MaxNetworkRetries: stripe.Int64(0),
		}
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig(apiURL)),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig(stripe.ConnectURL)),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig(stripe.UploadsURL)),
	}

	return &StripeAdapter{
		api:            client.New(cfg.SecretKey, backends),
		publishableKey: cfg.PublishableKey,
		webhookSecret:  cfg.WebhookSecret,
		logger:         cfg.Logger,
	}
}

func (a *StripeAdapter) Name() string { return GatewayStripe }

// ProcessPayment picks one of three flows, in this order: a payment method
// token creates and confirms in one call, an intent id confirms that intent,
// and otherwise an unconfirmed intent is created.
func (a *StripeAdapter) ProcessPayment(ctx context.Context, req PaymentRequest) (res *Result) {
	ctx, span := startSpan(ctx, GatewayStripe, "process_payment")
	defer finish(GatewayStripe, span, &res)

	if failure := checkPayment(GatewayStripe, req); failure != nil {
		return failure
	}
	amount, err := minorUnits(req.Amount)
	if err != nil {
		return amountFailure(GatewayStripe, err)
	}

	var pi *stripe.PaymentIntent
	switch {
	case req.PaymentMethodID != "":
		params := a.intentParams(ctx, req, amount)
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
		params.Confirm = stripe.Bool(true)
		pi, err = a.api.PaymentIntents.New(params)
	case req.PaymentIntentID != "":
		params := &stripe.PaymentIntentConfirmParams{}
		params.Context = ctx
		pi, err = a.api.PaymentIntents.Confirm(req.PaymentIntentID, params)
	default:
		pi, err = a.api.PaymentIntents.New(a.intentParams(ctx, req, amount))
	}
	if err != nil {
		return a.failure("process_payment", err)
	}

	return NewSuccess(GatewayStripe, a.paymentResponse(pi, false))
}

func (a *StripeAdapter) CreatePaymentIntent(ctx context.Context, req PaymentRequest) (res *Result) {
	ctx, span := startSpan(ctx, GatewayStripe, "create_payment_intent")
	defer finish(GatewayStripe, span, &res)

	if failure := checkPayment(GatewayStripe, req); failure != nil {
		return failure
	}
	amount, err := minorUnits(req.Amount)
	if err != nil {
		return amountFailure(GatewayStripe, err)
	}

	pi, err := a.api.PaymentIntents.New(a.intentParams(ctx, req, amount))
	if err != nil {
		return a.failure("create_payment_intent", err)
	}

	return NewSuccess(GatewayStripe, a.paymentResponse(pi, true))
}

func (a *StripeAdapter) ProcessRefund(ctx context.Context, req RefundRequest) (res *Result) {
	ctx, span := startSpan(ctx, GatewayStripe, "process_refund")
	defer finish(GatewayStripe, span, &res)

	if req.PaymentIntentID == "" {
		return newValidationFailure(GatewayStripe, "Payment intent ID is required for refunds", []string{"paymentIntentId is required"})
	}
	if req.Amount < 0 {
		return newValidationFailure(GatewayStripe, "Refund amount must not be negative", []string{"amount must not be negative"})
	}

	params := &stripe.RefundParams{PaymentIntent: stripe.String(req.PaymentIntentID)}
	params.Context = ctx
	if req.Amount > 0 {
		amount, err := minorUnits(req.Amount)
		if err != nil {
			return amountFailure(GatewayStripe, err)
		}
		params.Amount = stripe.Int64(amount)
	}
	if req.Reason != "" {
		params.Reason = stripe.String(req.Reason)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, metadataValue(v))
	}

	r, err := a.api.Refunds.New(params)
	if err != nil {
		return a.failure("process_refund", err)
	}

	return NewSuccess(GatewayStripe, StripeRefundResponse{
		RefundID:        r.ID,
		PaymentIntentID: req.PaymentIntentID,
		Status:          string(r.Status),
		Amount:          r.Amount,
		Currency:        string(r.Currency),
		Reason:          string(r.Reason),
	})
}

func (a *StripeAdapter) GetPaymentStatus(ctx context.Context, id string) (res *Result) {
	ctx, span := startSpan(ctx, GatewayStripe, "get_payment_status")
	defer finish(GatewayStripe, span, &res)

	if id == "" {
		return newValidationFailure(GatewayStripe, "Payment intent ID is required", []string{"id is required"})
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := a.api.PaymentIntents.Get(id, params)
	if err != nil {
		return a.failure("get_payment_status", err)
	}

	return NewSuccess(GatewayStripe, StripeStatusResponse{
		PaymentIntentID:  pi.ID,
		Status:           string(pi.Status),
		Amount:           pi.Amount,
		Currency:         string(pi.Currency),
		Created:          time.Unix(pi.Created, 0).UTC(),
		LastPaymentError: pi.LastPaymentError,
	})
}

// VerifyWebhook checks the Stripe-Signature header with the SDK helper. Any
// SDK error, including a stale timestamp, yields an invalid result.
func (a *StripeAdapter) VerifyWebhook(ctx context.Context, req WebhookRequest) (out WebhookVerification) {
	_, span := startSpan(ctx, GatewayStripe, "verify_webhook")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			out = WebhookVerification{IsValid: false, Error: fmt.Sprintf("webhook verification failed: %v", r)}
		}
	}()

	if req.Signature == "" {
		return WebhookVerification{IsValid: false, Error: "Missing Stripe-Signature header"}
	}
	if a.webhookSecret == "" {
		return WebhookVerification{IsValid: false, Error: "Stripe webhook secret is not configured"}
	}

	event, err := webhook.ConstructEvent(req.Body, req.Signature, a.webhookSecret)
	if err != nil {
		a.logger.Warn().Err(err).Str("gateway", GatewayStripe).Msg("webhook signature rejected")
		return WebhookVerification{IsValid: false, Error: err.Error()}
	}

	return WebhookVerification{IsValid: true, Event: event}
}

func (a *StripeAdapter) SupportedCurrencies() []string {
	return append([]string(nil), stripeCurrencies...)
}

func (a *StripeAdapter) SupportedPaymentMethods() []string {
	return append([]string(nil), stripePaymentMethods...)
}

func (a *StripeAdapter) intentParams(ctx context.Context, req PaymentRequest, amount int64) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(lowerCurrency(req.Currency)),
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, metadataValue(v))
	}
	return params
}

func (a *StripeAdapter) paymentResponse(pi *stripe.PaymentIntent, withKey bool) StripePaymentResponse {
	resp := StripePaymentResponse{
		PaymentIntentID: pi.ID,
		Status:          string(pi.Status),
		Amount:          pi.Amount,
		Currency:        string(pi.Currency),
		ClientSecret:    pi.ClientSecret,
		RequiresAction:  pi.Status == stripe.PaymentIntentStatusRequiresAction,
	}
	if pi.NextAction != nil {
		resp.NextAction = pi.NextAction
	}
	if withKey {
		resp.PublishableKey = a.publishableKey
	}
	return resp
}

func (a *StripeAdapter) failure(op string, err error) *Result {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		a.logger.Warn().
			Str("gateway", GatewayStripe).
			Str("operation", op).
			Str("code", string(stripeErr.Code)).
			Str("type", string(stripeErr.Type)).
			Str("request_id", stripeErr.RequestID).
			Msg(stripeErr.Msg)

		details := map[string]any{
			"type":       string(stripeErr.Type),
			"httpStatus": stripeErr.HTTPStatusCode,
		}
		if stripeErr.DeclineCode != "" {
			details["declineCode"] = string(stripeErr.DeclineCode)
		}
		if stripeErr.Param != "" {
			details["param"] = stripeErr.Param
		}
		if stripeErr.RequestID != "" {
			details["requestId"] = stripeErr.RequestID
		}

		message := stripeErr.Msg
		if message == "" {
			message = err.Error()
		}
		return NewFailure(GatewayStripe, message, string(stripeErr.Code), details)
	}

	code := CodeUnknown
	if isBreakerOpen(err) {
		code = CodeGatewayUnavailable
	}
	a.logger.Error().Err(err).Str("gateway", GatewayStripe).Str("operation", op).Msg("stripe request failed")
	return NewFailure(GatewayStripe, err.Error(), code, nil)
}

// stripeLogger routes SDK logging into zerolog.
type stripeLogger struct {
	logger zerolog.Logger
}

func (l *stripeLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
func (l *stripeLogger) Infof(format string, v ...interface{})  { l.logger.Debug().Msgf(format, v...) }
func (l *stripeLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l *stripeLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
