package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"innkeep/internal/payments/service"
	apperrors "innkeep/pkg/errors"
	httputil "innkeep/pkg/http"
	"innkeep/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Webhook bodies are small; 1 MiB is generous.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) ApplyManual(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "ApplyManual", err)
		return
	}

	var req service.ManualPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ApplyManual", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.ApplyManualPayment(r.Context(), actor, ps.ByName("id"), req)
	if err != nil {
		h.writeError(w, "ApplyManual", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "ApplyManual", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req service.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateOrder", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	order, err := h.service.CreateGatewayOrder(r.Context(), ps.ByName("id"), req)
	if err != nil {
		h.writeError(w, "CreateOrder", err)
		return
	}

	if err := httputil.WriteCreated(w, order); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateOrder", "operation", "WriteCreated", "error", err)
	}
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Verify", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.VerifyGatewayPayment(r.Context(), req)
	if err != nil {
		h.writeError(w, "Verify", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Verify", "operation", "WriteSuccess", "error", err)
	}
}

// Webhook reads the raw body before any parsing: the gateway signature is
// computed over the exact bytes sent.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, "Webhook", apperrors.InvalidInput("Failed to read webhook body"))
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if signature == "" {
		h.writeError(w, "Webhook", apperrors.SignatureMismatch("Missing webhook signature"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), body, signature); err != nil {
		h.writeError(w, "Webhook", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"status": "ok"}); err != nil {
		h.log.Error("failed to write success response", "handler", "Webhook", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings/id/:id/payments", h.ApplyManual)
	router.POST("/api/v1/bookings/id/:id/payments/order", h.CreateOrder)
	router.POST("/api/v1/payments/verify", h.Verify)
	router.POST("/api/v1/payments/webhook", h.Webhook)
}
