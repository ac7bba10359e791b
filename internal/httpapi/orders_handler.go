package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/orderflow"
)

// OrdersAPI is the slice of the remote client the orders surface needs.
type OrdersAPI interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	AdvanceOrder(ctx context.Context, orderID string, target orderflow.Status) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrdersAPI
	display *money.DisplayContext
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersAPI, display *money.DisplayContext, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, display: display, timeout: timeout}
}

type orderItemDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type orderDTO struct {
	ID           string         `json:"id"`
	TrackingCode string         `json:"tracking_code"`
	Customer     string         `json:"customer"`
	Status       string         `json:"status"`
	Total        string         `json:"total"`
	Items        []orderItemDTO `json:"items"`
	CreatedAt    string         `json:"created_at"`
}

func (h *OrdersHandler) toDTO(o *domain.Order) orderDTO {
	items := make([]orderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   h.display.Format(item.UnitPrice),
		})
	}
	return orderDTO{
		ID:           o.ID,
		TrackingCode: o.TrackingCode,
		Customer:     o.Customer,
		Status:       o.Status.String(),
		Total:        h.display.Format(o.Total),
		Items:        items,
		CreatedAt:    o.CreatedAt.Format(time.RFC3339),
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		respondFailure(w, err)
		return
	}

	dtos := make([]orderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, h.toDTO(&orders[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(order))
}

type advanceStatusDTO struct {
	Status string `json:"status"`
}

// PATCH /api/v1/orders/{order_id}/status
//
// The handler pre-validates the transition against the current order so an
// out-of-order stage jump fails fast without a mutation call; the server
// enforces the same rule authoritatively.
func (h *OrdersHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	var req advanceStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	target, ok := orderflow.Parse(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown status "+req.Status)
		return
	}

	current, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if !orderflow.CanAdvance(current.Status, target) {
		respondFailure(w, orderflow.ErrInvalidTransition)
		return
	}

	order, err := h.orders.AdvanceOrder(ctx, orderID, target)
	if err != nil {
		respondFailure(w, err)
		return
	}

	slog.InfoContext(ctx, "order status advanced",
		"request_id", requestIDFromContext(r.Context()),
		"order_id", orderID,
		"actor", actorFromContext(r.Context()),
		"from", current.Status.String(), "to", target.String())

	respondJSON(w, http.StatusOK, h.toDTO(order))
}
