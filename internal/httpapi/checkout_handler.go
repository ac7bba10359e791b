package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/checkout"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
)

type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	display      *money.DisplayContext
	timeout      time.Duration
}

func NewCheckoutHandler(orchestrator *checkout.Orchestrator, display *money.DisplayContext, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator, display: display, timeout: timeout}
}

type checkoutRequestDTO struct {
	ShippingInfo  domain.ShippingInfo `json:"shipping_info"`
	PaymentMethod string              `json:"payment_method"`
}

type checkoutResponseDTO struct {
	OrderID      string `json:"order_id"`
	TrackingCode string `json:"tracking_code"`
	Status       string `json:"status"`
	Total        string `json:"total"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash_on_delivery"
	}

	order, err := h.orchestrator.Checkout(ctx, req.ShippingInfo, req.PaymentMethod)
	if err != nil {
		respondFailure(w, err)
		return
	}

	slog.InfoContext(ctx, "order placed",
		"request_id", requestIDFromContext(r.Context()),
		"order_id", order.ID, "tracking_code", order.TrackingCode)

	respondJSON(w, http.StatusCreated, checkoutResponseDTO{
		OrderID:      order.ID,
		TrackingCode: order.TrackingCode,
		Status:       order.Status.String(),
		Total:        h.display.Format(order.Total),
	})
}
