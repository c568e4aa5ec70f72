package controller

import (
	"net/http"

	"github.com/cassiomorais/paygate/internal/service"
	"github.com/go-chi/chi/v5"
)

type GatewayController struct {
	svc *service.GatewayService
}

func NewGatewayController(svc *service.GatewayService) *GatewayController {
	return &GatewayController{svc: svc}
}

func (h *GatewayController) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GatewayListResponse{
		Gateways: h.svc.AllCapabilities(),
		Stats:    h.svc.Stats(),
	})
}

func (h *GatewayController) Configuration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Configuration())
}

func (h *GatewayController) Get(w http.ResponseWriter, r *http.Request) {
	caps, err := h.svc.Capabilities(chi.URLParam(r, "gateway"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, caps)
}
