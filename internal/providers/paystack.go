package providers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPaystackBaseURL = "https://api.paystack.co"
	maxPaystackBody        = 1 << 20
)

// PaystackConfig configures the Paystack adapter. CallbackURL is used when a
// payment request does not carry its own.
type PaystackConfig struct {
	SecretKey   string
	PublicKey   string
	BaseURL     string
	CallbackURL string
	HTTPClient  *http.Client
	Logger      zerolog.Logger
}

// PaystackAdapter calls the Paystack REST API directly. Requests carry
// amounts in major units; the adapter sends minor units (x100) and converts
// provider amounts back (/100).
type PaystackAdapter struct {
	secretKey   string
	publicKey   string
	baseURL     string
	callbackURL string
	http        *http.Client
	logger      zerolog.Logger
}

type PaystackPaymentResponse struct {
	Reference        string  `json:"reference"`
	AuthorizationURL string  `json:"authorizationUrl"`
	AccessCode       string  `json:"accessCode"`
	Status           string  `json:"status"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	PublicKey        string  `json:"publicKey,omitempty"`
}

type PaystackTransactionResponse struct {
	TransactionID   int64      `json:"transactionId"`
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	Channel         string     `json:"channel,omitempty"`
	GatewayResponse string     `json:"gatewayResponse,omitempty"`
	CustomerEmail   string     `json:"customerEmail,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

type PaystackRefundResponse struct {
	RefundID             int64   `json:"refundId"`
	TransactionReference string  `json:"transactionReference"`
	Status               string  `json:"status"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
}

// PaystackEvent is a webhook body as Paystack sends it.
type PaystackEvent struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackTransaction struct {
	ID              int64      `json:"id"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	Channel         string     `json:"channel"`
	GatewayResponse string     `json:"gateway_response"`
	PaidAt          *time.Time `json:"paid_at"`
	CreatedAt       *time.Time `json:"created_at"`
	Customer        struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type paystackRefund struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Transaction struct {
		Reference string `json:"reference"`
	} `json:"transaction"`
}

// paystackError is a well-formed rejection from the Paystack API.
type paystackError struct {
	HTTPStatus int
	Message    string
	Code       string
}

func (e *paystackError) Error() string {
	return fmt.Sprintf("paystack: %s (HTTP %d)", e.Message, e.HTTPStatus)
}

func NewPaystackAdapter(cfg PaystackConfig) *PaystackAdapter {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultPaystackBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &PaystackAdapter{
		secretKey:   cfg.SecretKey,
		publicKey:   cfg.PublicKey,
		baseURL:     baseURL,
		callbackURL: cfg.CallbackURL,
		http:        httpClient,
		logger:      cfg.Logger,
	}
}

func (a *PaystackAdapter) Name() string { return GatewayPaystack }

// ProcessPayment charges a stored authorization code when PaymentMethodID is
// set; otherwise it initializes a transaction the customer completes on the
// returned authorization URL.
func (a *PaystackAdapter) ProcessPayment(ctx context.Context, req PaymentRequest) (res *Result) {
	ctx, span := startSpan(ctx, GatewayPaystack, "process_payment")
	defer finish(GatewayPaystack, span, &res)

	amount, failure := a.checkPayment(req)
	if failure != nil {
		return failure
	}
	if req.PaymentMethodID == "" {
		return a.initialize(ctx, "process_payment", req, amount)
	}

	reference := GenerateUnifiedID(GatewayPaystack)
	body := map[string]any{
		"email":              req.CustomerEmail,
		"amount":             amount,
		"currency":           upperCurrency(req.Currency),
		"authorization_code": req.PaymentMethodID,
		"reference":          reference,
	}
	if md := paystackMetadata(req); md != nil {
		body["metadata"] = md
	}

	var tx paystackTransaction
	if err := a.do(ctx, http.MethodPost, "/transaction/charge_authorization", body, &tx); err != nil {
		return a.failure("process_payment", err)
	}

	return NewSuccess(GatewayPaystack, transactionResponse(tx))
}

// CreatePaymentIntent initializes a transaction that waits for the customer
// to complete payment on Paystack's checkout.
func (a *PaystackAdapter) CreatePaymentIntent(ctx context.Context, req PaymentRequest) (res *Result) {
	ctx, span := startSpan(ctx, GatewayPaystack, "create_payment_intent")
	defer finish(GatewayPaystack, span, &res)

	amount, failure := a.checkPayment(req)
	if failure != nil {
		return failure
	}
	return a.initialize(ctx, "create_payment_intent", req, amount)
}

func (a *PaystackAdapter) ProcessRefund(ctx context.Context, req RefundRequest) (res *Result) {
	ctx, span := startSpan(ctx, GatewayPaystack, "process_refund")
	defer finish(GatewayPaystack, span, &res)

	if req.TransactionReference == "" {
		return newValidationFailure(GatewayPaystack, "Transaction reference is required for refunds", []string{"transactionReference is required"})
	}
	if req.Amount < 0 {
		return newValidationFailure(GatewayPaystack, "Refund amount must not be negative", []string{"amount must not be negative"})
	}

	body := map[string]any{"transaction": req.TransactionReference}
	if req.Amount > 0 {
		amount, err := toMinorUnits(req.Amount)
		if err != nil {
			return amountFailure(GatewayPaystack, err)
		}
		body["amount"] = amount
	}
	if req.Reason != "" {
		body["merchant_note"] = req.Reason
	}

	var refund paystackRefund
	if err := a.do(ctx, http.MethodPost, "/refund", body, &refund); err != nil {
		return a.failure("process_refund", err)
	}

	reference := refund.Transaction.Reference
	if reference == "" {
		reference = req.TransactionReference
	}
	return NewSuccess(GatewayPaystack, PaystackRefundResponse{
		RefundID:             refund.ID,
		TransactionReference: reference,
		Status:               refund.Status,
		Amount:               fromMinorUnits(refund.Amount),
		Currency:             refund.Currency,
	})
}

// GetPaymentStatus verifies a transaction by reference.
func (a *PaystackAdapter) GetPaymentStatus(ctx context.Context, reference string) (res *Result) {
	ctx, span := startSpan(ctx, GatewayPaystack, "get_payment_status")
	defer finish(GatewayPaystack, span, &res)

	if reference == "" {
		return newValidationFailure(GatewayPaystack, "Transaction reference is required", []string{"reference is required"})
	}

	var tx paystackTransaction
	if err := a.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &tx); err != nil {
		return a.failure("get_payment_status", err)
	}

	return NewSuccess(GatewayPaystack, transactionResponse(tx))
}

// VerifyWebhook recomputes HMAC-SHA512 over the raw body with the secret key
// and compares it with the x-paystack-signature value.
func (a *PaystackAdapter) VerifyWebhook(ctx context.Context, req WebhookRequest) (out WebhookVerification) {
	_, span := startSpan(ctx, GatewayPaystack, "verify_webhook")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			out = WebhookVerification{IsValid: false, Error: fmt.Sprintf("webhook verification failed: %v", r)}
		}
	}()

	if req.Signature == "" {
		return WebhookVerification{IsValid: false, Error: "Missing x-paystack-signature header"}
	}

	expected := SignPaystackPayload(a.secretKey, req.Body)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		a.logger.Warn().Str("gateway", GatewayPaystack).Msg("webhook signature rejected")
		return WebhookVerification{IsValid: false, Error: "Invalid webhook signature"}
	}

	var event PaystackEvent
	if err := json.Unmarshal(req.Body, &event); err != nil {
		return WebhookVerification{IsValid: false, Error: "Invalid webhook payload: " + err.Error()}
	}

	return WebhookVerification{IsValid: true, Event: event}
}

// SignPaystackPayload returns the hex HMAC-SHA512 Paystack sends for body.
func SignPaystackPayload(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *PaystackAdapter) SupportedCurrencies() []string {
	return append([]string(nil), paystackCurrencies...)
}

func (a *PaystackAdapter) SupportedPaymentMethods() []string {
	return append([]string(nil), paystackPaymentMethods...)
}

// checkPayment adds Paystack's email requirement on top of the shared rules
// and returns the amount in minor units.
func (a *PaystackAdapter) checkPayment(req PaymentRequest) (int64, *Result) {
	if failure := checkPayment(GatewayPaystack, req); failure != nil {
		return 0, failure
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return 0, newValidationFailure(GatewayPaystack, "Customer email is required for Paystack payments", []string{"customerEmail is required"})
	}
	amount, err := toMinorUnits(req.Amount)
	if err != nil {
		return 0, amountFailure(GatewayPaystack, err)
	}
	return amount, nil
}

func (a *PaystackAdapter) initialize(ctx context.Context, op string, req PaymentRequest, amount int64) *Result {
	reference := GenerateUnifiedID(GatewayPaystack)
	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = a.callbackURL
	}
	currency := upperCurrency(req.Currency)

	body := map[string]any{
		"email":     req.CustomerEmail,
		"amount":    amount,
		"currency":  currency,
		"reference": reference,
	}
	if callbackURL != "" {
		body["callback_url"] = callbackURL
	}
	if req.Channel != "" {
		body["channels"] = []string{req.Channel}
	}
	if md := paystackMetadata(req); md != nil {
		body["metadata"] = md
	}

	var data paystackInitData
	if err := a.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return a.failure(op, err)
	}
	if data.Reference != "" {
		reference = data.Reference
	}

	return NewSuccess(GatewayPaystack, PaystackPaymentResponse{
		Reference:        reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Status:           "pending",
		Amount:           req.Amount,
		Currency:         currency,
		PublicKey:        a.publicKey,
	})
}

// do sends one request and decodes the data field of Paystack's
// {status, message, data} envelope into out.
func (a *PaystackAdapter) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.secretKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPaystackBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &paystackError{
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected response from Paystack (HTTP %d)", resp.StatusCode),
		}
	}
	if resp.StatusCode >= http.StatusMultipleChoices || !env.Status {
		message := env.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &paystackError{HTTPStatus: resp.StatusCode, Message: message, Code: env.Code}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

func (a *PaystackAdapter) failure(op string, err error) *Result {
	var apiErr *paystackError
	if errors.As(err, &apiErr) {
		a.logger.Warn().
			Str("gateway", GatewayPaystack).
			Str("operation", op).
			Int("http_status", apiErr.HTTPStatus).
			Str("code", apiErr.Code).
			Msg(apiErr.Message)
		code := apiErr.Code
		if code == "" {
			code = paystackStatusCode(apiErr.HTTPStatus)
		}
		return NewFailure(GatewayPaystack, apiErr.Message, code, map[string]any{"httpStatus": apiErr.HTTPStatus})
	}

	code := CodeUnknown
	if isBreakerOpen(err) {
		code = CodeGatewayUnavailable
	}
	a.logger.Error().Err(err).Str("gateway", GatewayPaystack).Str("operation", op).Msg("paystack request failed")
	return NewFailure(GatewayPaystack, err.Error(), code, nil)
}

// paystackStatusCode names a rejection Paystack sent without a code. Auth
// failures and server errors stay UNKNOWN_ERROR: the request itself was fine.
func paystackStatusCode(status int) string {
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ""
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return CodeInvalidRequest
	default:
		return ""
	}
}

func transactionResponse(tx paystackTransaction) PaystackTransactionResponse {
	return PaystackTransactionResponse{
		TransactionID:   tx.ID,
		Reference:       tx.Reference,
		Status:          tx.Status,
		Amount:          fromMinorUnits(tx.Amount),
		Currency:        tx.Currency,
		Channel:         tx.Channel,
		GatewayResponse: tx.GatewayResponse,
		CustomerEmail:   tx.Customer.Email,
		PaidAt:          tx.PaidAt,
		CreatedAt:       tx.CreatedAt,
	}
}

// paystackMetadata passes caller metadata through untouched, adding the
// description since Paystack has no dedicated field for it.
func paystackMetadata(req PaymentRequest) map[string]any {
	if len(req.Metadata) == 0 && req.Description == "" {
		return nil
	}
	md := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		md[k] = v
	}
	if req.Description != "" {
		if _, ok := md["description"]; !ok {
			md["description"] = req.Description
		}
	}
	return md
}
