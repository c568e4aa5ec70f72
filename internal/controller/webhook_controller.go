package controller

import (
	"errors"
	"io"
	"net/http"
	"strings"

	domainErrors "github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/cassiomorais/paygate/internal/providers"
	"github.com/cassiomorais/paygate/internal/service"
	"github.com/go-chi/chi/v5"
)

// signatureHeaders names the header each provider signs webhooks with.
var signatureHeaders = map[string]string{
	providers.GatewayStripe:   "Stripe-Signature",
	providers.GatewayPaystack: "X-Paystack-Signature",
}

const defaultSignatureHeader = "X-Webhook-Signature"

type WebhookController struct {
	svc *service.GatewayService
}

func NewWebhookController(svc *service.GatewayService) *WebhookController {
	return &WebhookController{svc: svc}
}

// Receive verifies a provider webhook against the raw request body. The body
// must not be decoded before verification or the signature will not match.
func (h *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	gateway := strings.ToLower(chi.URLParam(r, "gateway"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large", Code: "payload_too_large"})
			return
		}
		writeError(w, r, domainErrors.NewValidationError("body", "unreadable request body"))
		return
	}

	out, err := h.svc.VerifyWebhook(r.Context(), gateway, providers.WebhookRequest{
		Body:      body,
		Signature: r.Header.Get(signatureHeader(gateway)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !out.IsValid {
		writeJSON(w, http.StatusBadRequest, out)
		return
	}

	writeJSON(w, http.StatusOK, WebhookAckResponse{Received: true, Gateway: gateway})
}

func signatureHeader(gateway string) string {
	if h, ok := signatureHeaders[gateway]; ok {
		return h
	}
	return defaultSignatureHeader
}
