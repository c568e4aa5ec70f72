package controller

import (
	"net/http"

	domainErrors "github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/cassiomorais/paygate/internal/service"
	"github.com/go-chi/chi/v5"
)

type PaymentController struct {
	svc *service.GatewayService
}

func NewPaymentController(svc *service.GatewayService) *PaymentController {
	return &PaymentController{svc: svc}
}

func (h *PaymentController) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.ProcessPayment(r.Context(), chi.URLParam(r, "gateway"), req.toProvider())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, res, http.StatusOK)
}

func (h *PaymentController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.CreatePaymentIntent(r.Context(), chi.URLParam(r, "gateway"), req.toProvider())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, res, http.StatusCreated)
}

func (h *PaymentController) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.ProcessRefund(r.Context(), chi.URLParam(r, "gateway"), req.toProvider())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, res, http.StatusOK)
}

func (h *PaymentController) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetPaymentStatus(r.Context(), chi.URLParam(r, "gateway"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, res, http.StatusOK)
}

// Callback is where hosted checkout pages redirect the customer. Paystack
// appends the transaction reference as both reference and trxref.
func (h *PaymentController) Callback(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		ref = r.URL.Query().Get("trxref")
	}
	if ref == "" {
		writeError(w, r, domainErrors.NewValidationError("reference", "query parameter is required"))
		return
	}

	res, err := h.svc.GetPaymentStatus(r.Context(), chi.URLParam(r, "gateway"), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, res, http.StatusOK)
}
