package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

const testWebhookSecret = "whsec_test_secret"

type stripeFake struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newStripeFake(t *testing.T, handler http.HandlerFunc) (*StripeAdapter, *stripeFake) {
	t.Helper()

	fake := &stripeFake{}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.calls.Add(1)
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(fake.server.Close)

	adapter := NewStripeAdapter(StripeConfig{
		SecretKey:      "sk_test_123",
		PublishableKey: "pk_test_123",
		WebhookSecret:  testWebhookSecret,
		APIURL:         fake.server.URL,
		HTTPClient:     fake.server.Client(),
	})
	return adapter, fake
}

func paymentIntentJSON(id, status string, amount int64) string {
	return fmt.Sprintf(`{"id":%q,"object":"payment_intent","amount":%d,"currency":"usd","status":%q,"client_secret":"%s_secret","created":1700000000}`,
		id, amount, status, id)
}

func TestStripe_ProcessPayment_WithPaymentMethodCreatesAndConfirms(t *testing.T) {
	adapter, fake := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "5000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))
		assert.Equal(t, "true", r.PostForm.Get("confirm"))
		assert.Equal(t, "order-1", r.PostForm.Get("metadata[order_id]"))
		fmt.Fprint(w, paymentIntentJSON("pi_123", "succeeded", 5000))
	})

	res := adapter.ProcessPayment(context.Background(), PaymentRequest{
		Amount:          5000,
		Currency:        "USD",
		PaymentMethodID: "pm_card_visa",
		PaymentIntentID: "pi_ignored",
		Metadata:        map[string]any{"order_id": "order-1"},
	})

	require.True(t, res.Success, "unexpected failure: %+v", res.Error)
	assert.Equal(t, GatewayStripe, res.Gateway)
	assert.Contains(t, res.UnifiedID, "unified_stripe_")
	assert.EqualValues(t, 1, fake.calls.Load())

	payload, ok := res.GatewayResponse.(StripePaymentResponse)
	require.True(t, ok)
	assert.Equal(t, "pi_123", payload.PaymentIntentID)
	assert.Equal(t, "succeeded", payload.Status)
	assert.EqualValues(t, 5000, payload.Amount)
	assert.False(t, payload.RequiresAction)
	assert.Empty(t, payload.PublishableKey)
}

func TestStripe_ProcessPayment_WithIntentIDConfirms(t *testing.T) {
	adapter, fake := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_pending/confirm", r.URL.Path)
		fmt.Fprint(w, paymentIntentJSON("pi_pending", "requires_action", 1200))
	})

	res := adapter.ProcessPayment(context.Background(), PaymentRequest{
		Amount:          1200,
		Currency:        "usd",
		PaymentIntentID: "pi_pending",
	})

	require.True(t, res.Success)
	assert.EqualValues(t, 1, fake.calls.Load())

	payload := res.GatewayResponse.(StripePaymentResponse)
	assert.Equal(t, "requires_action", payload.Status)
	assert.True(t, payload.RequiresAction)
}

func TestStripe_ProcessPayment_WithoutTokensCreatesUnconfirmedIntent(t *testing.T) {
	adapter, _ := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Empty(t, r.PostForm.Get("confirm"))
		assert.Equal(t, "eur", r.PostForm.Get("currency"))
		assert.Equal(t, "1999", r.PostForm.Get("amount"))
		fmt.Fprint(w, paymentIntentJSON("pi_new", "requires_payment_method", 1999))
	})

	res := adapter.ProcessPayment(context.Background(), PaymentRequest{Amount: 1999, Currency: "EUR"})

	require.True(t, res.Success)
	assert.Equal(t, "requires_payment_method", res.GatewayResponse.(StripePaymentResponse).Status)
}

func TestStripe_InvalidPaymentMakesNoNetworkCall(t *testing.T) {
	tests := []struct {
		name string
		req  PaymentRequest
	}{
		{"zero amount", PaymentRequest{Amount: 0, Currency: "USD"}},
		{"negative amount", PaymentRequest{Amount: -10, Currency: "USD"}},
		{"missing currency", PaymentRequest{Amount: 100}},
		{"short currency", PaymentRequest{Amount: 100, Currency: "US"}},
	}

	adapter, fake := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected provider call to %s", r.URL.Path)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, res := range []*Result{
				adapter.ProcessPayment(context.Background(), tt.req),
				adapter.CreatePaymentIntent(context.Background(), tt.req),
			} {
				require.False(t, res.Success)
				assert.Equal(t, CodeValidation, res.ErrorCode())
				assert.Contains(t, res.Error.Message, "Invalid payment data")
			}
		})
	}

	assert.Zero(t, fake.calls.Load())
}

func TestStripe_UnrepresentableAmountMakesNoNetworkCall(t *testing.T) {
	adapter, fake := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected provider call to %s", r.URL.Path)
	})

	for _, amount := range []float64{0.4, 1999.4, 1e19} {
		req := PaymentRequest{Amount: amount, Currency: "USD"}
		for _, res := range []*Result{
			adapter.ProcessPayment(context.Background(), req),
			adapter.CreatePaymentIntent(context.Background(), req),
		} {
			require.False(t, res.Success, "amount %v", amount)
			assert.Equal(t, CodeValidation, res.ErrorCode())
			assert.Contains(t, res.Error.Message, "Invalid amount")
		}
	}

	res := adapter.ProcessRefund(context.Background(), RefundRequest{PaymentIntentID: "pi_123", Amount: 1e19})
	require.False(t, res.Success)
	assert.Equal(t, CodeValidation, res.ErrorCode())

	assert.Zero(t, fake.calls.Load())
}

func TestStripe_CreatePaymentIntent_IncludesPublishableKey(t *testing.T) {
	adapter, _ := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Order 42", r.PostForm.Get("description"))
		assert.Equal(t, "buyer@example.com", r.PostForm.Get("receipt_email"))
		fmt.Fprint(w, paymentIntentJSON("pi_intent", "requires_payment_method", 2500))
	})

	res := adapter.CreatePaymentIntent(context.Background(), PaymentRequest{
		Amount:        2500,
		Currency:      "usd",
		Description:   "Order 42",
		CustomerEmail: "buyer@example.com",
	})

	require.True(t, res.Success)
	payload := res.GatewayResponse.(StripePaymentResponse)
	assert.Equal(t, "pk_test_123", payload.PublishableKey)
	assert.Equal(t, "pi_intent_secret", payload.ClientSecret)
}

func TestStripe_ProviderErrorIsPassedThrough(t *testing.T) {
	adapter, _ := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Request-Id", "req_abc")
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"type":"card_error","code":"card_declined","decline_code":"generic_decline","message":"Your card was declined."}}`)
	})

	res := adapter.ProcessPayment(context.Background(), PaymentRequest{Amount: 100, Currency: "usd", PaymentMethodID: "pm_card_chargeDeclined"})

	require.False(t, res.Success)
	assert.Equal(t, "card_declined", res.ErrorCode())
	assert.Equal(t, "Your card was declined.", res.Error.Message)

	details, ok := res.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "generic_decline", details["declineCode"])
	assert.Equal(t, http.StatusPaymentRequired, details["httpStatus"])
}

func TestStripe_ProcessRefund_RequiresPaymentIntentID(t *testing.T) {
	adapter, fake := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected provider call to %s", r.URL.Path)
	})

	res := adapter.ProcessRefund(context.Background(), RefundRequest{Amount: 10})

	require.False(t, res.Success)
	assert.Equal(t, CodeValidation, res.ErrorCode())
	assert.Equal(t, "Payment intent ID is required for refunds", res.Error.Message)
	assert.Zero(t, fake.calls.Load())
}

func TestStripe_ProcessRefund_Partial(t *testing.T) {
	adapter, _ := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		assert.Equal(t, "pi_123", r.PostForm.Get("payment_intent"))
		assert.Equal(t, "500", r.PostForm.Get("amount"))
		assert.Equal(t, "requested_by_customer", r.PostForm.Get("reason"))
		fmt.Fprint(w, `{"id":"re_1","object":"refund","amount":500,"currency":"usd","status":"succeeded","reason":"requested_by_customer"}`)
	})

	res := adapter.ProcessRefund(context.Background(), RefundRequest{
		PaymentIntentID: "pi_123",
		Amount:          500,
		Reason:          "requested_by_customer",
	})

	require.True(t, res.Success, "unexpected failure: %+v", res.Error)
	payload := res.GatewayResponse.(StripeRefundResponse)
	assert.Equal(t, "re_1", payload.RefundID)
	assert.Equal(t, "pi_123", payload.PaymentIntentID)
	assert.EqualValues(t, 500, payload.Amount)
}

func TestStripe_ProcessRefund_FullOmitsAmount(t *testing.T) {
	adapter, _ := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasAmount := r.PostForm["amount"]
		assert.False(t, hasAmount)
		fmt.Fprint(w, `{"id":"re_2","object":"refund","amount":5000,"currency":"usd","status":"pending"}`)
	})

	res := adapter.ProcessRefund(context.Background(), RefundRequest{PaymentIntentID: "pi_123"})

	require.True(t, res.Success)
	assert.Equal(t, "pending", res.GatewayResponse.(StripeRefundResponse).Status)
}

func TestStripe_GetPaymentStatus(t *testing.T) {
	adapter, _ := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		fmt.Fprint(w, `{"id":"pi_123","object":"payment_intent","amount":5000,"currency":"usd","status":"requires_payment_method","created":1700000000,
			"last_payment_error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
	})

	res := adapter.GetPaymentStatus(context.Background(), "pi_123")

	require.True(t, res.Success, "unexpected failure: %+v", res.Error)
	payload := res.GatewayResponse.(StripeStatusResponse)
	assert.Equal(t, "requires_payment_method", payload.Status)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), payload.Created)
	require.NotNil(t, payload.LastPaymentError)
	assert.Equal(t, stripe.ErrorCodeCardDeclined, payload.LastPaymentError.Code)
}

func TestStripe_GetPaymentStatus_RequiresID(t *testing.T) {
	adapter, fake := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {})

	res := adapter.GetPaymentStatus(context.Background(), "")

	assert.Equal(t, CodeValidation, res.ErrorCode())
	assert.Zero(t, fake.calls.Load())
}

func signStripePayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func stripeEventPayload() []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","api_version":%q,"data":{"object":{"id":"pi_123","object":"payment_intent"}}}`,
		stripe.APIVersion))
}

func TestStripe_VerifyWebhook(t *testing.T) {
	adapter, fake := newStripeFake(t, func(w http.ResponseWriter, r *http.Request) {})
	payload := stripeEventPayload()
	signature := signStripePayload(payload, testWebhookSecret, time.Now())

	t.Run("valid signature", func(t *testing.T) {
		out := adapter.VerifyWebhook(context.Background(), WebhookRequest{Body: payload, Signature: signature})

		require.True(t, out.IsValid, out.Error)
		event, ok := out.Event.(stripe.Event)
		require.True(t, ok)
		assert.Equal(t, "payment_intent.succeeded", event.Type)
	})

	t.Run("flipped signature byte", func(t *testing.T) {
		tampered := []byte(signature)
		last := len(tampered) - 1
		if tampered[last] == '0' {
			tampered[last] = '1'
		} else {
			tampered[last] = '0'
		}

		out := adapter.VerifyWebhook(context.Background(), WebhookRequest{Body: payload, Signature: string(tampered)})

		assert.False(t, out.IsValid)
		assert.NotEmpty(t, out.Error)
	})

	t.Run("missing signature", func(t *testing.T) {
		out := adapter.VerifyWebhook(context.Background(), WebhookRequest{Body: payload})

		assert.False(t, out.IsValid)
		assert.Equal(t, "Missing Stripe-Signature header", out.Error)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		stale := signStripePayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

		out := adapter.VerifyWebhook(context.Background(), WebhookRequest{Body: payload, Signature: stale})

		assert.False(t, out.IsValid)
	})

	assert.Zero(t, fake.calls.Load())
}

func TestStripe_VerifyWebhook_WithoutSecret(t *testing.T) {
	adapter := NewStripeAdapter(StripeConfig{SecretKey: "sk_test_123"})
	payload := stripeEventPayload()

	out := adapter.VerifyWebhook(context.Background(), WebhookRequest{
		Body:      payload,
		Signature: signStripePayload(payload, testWebhookSecret, time.Now()),
	})

	assert.False(t, out.IsValid)
	assert.Contains(t, out.Error, "not configured")
}

func TestStripe_Capabilities(t *testing.T) {
	adapter := NewStripeAdapter(StripeConfig{SecretKey: "sk_test_123"})

	currencies := adapter.SupportedCurrencies()
	assert.Greater(t, len(currencies), 100)
	assert.Contains(t, currencies, "USD")
	assert.Contains(t, currencies, "NGN")
	assert.Contains(t, adapter.SupportedPaymentMethods(), "card")

	// callers get a copy
	currencies[0] = "XXX"
	assert.Equal(t, "USD", adapter.SupportedCurrencies()[0])
}
