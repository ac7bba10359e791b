package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/cartstore"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/pricing"
)

// CartHandler exposes the cart store over the dashboard API. Every price in
// its responses is formatted in the session's selected display currency;
// stored amounts stay in the reference currency.
type CartHandler struct {
	store   *cartstore.Store
	display *money.DisplayContext
	timeout time.Duration
}

func NewCartHandler(store *cartstore.Store, display *money.DisplayContext, timeout time.Duration) *CartHandler {
	return &CartHandler{store: store, display: display, timeout: timeout}
}

type CartItemDTO struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type CartViewDTO struct {
	ID              string        `json:"id"`
	Items           []CartItemDTO `json:"items"`
	DiscountPercent int           `json:"discount_percent"`
	Currency        string        `json:"currency"`
	Subtotal        string        `json:"subtotal"`
	Discount        string        `json:"discount"`
	Total           string        `json:"total"`
}

func (h *CartHandler) view(cart *domain.Cart) (CartViewDTO, error) {
	totals, err := pricing.CartTotals(cart.Items, cart.DiscountPercent)
	if err != nil {
		return CartViewDTO{}, err
	}

	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   h.display.Format(item.UnitPrice),
			LineTotal:   h.display.Format(pricing.LineTotal(item.UnitPrice, item.Quantity)),
		})
	}

	return CartViewDTO{
		ID:              cart.ID,
		Items:           items,
		DiscountPercent: cart.DiscountPercent,
		Currency:        h.display.Selected().Code,
		Subtotal:        h.display.Format(totals.Subtotal),
		Discount:        h.display.Format(totals.Discount),
		Total:           h.display.Format(totals.TotalAfterDiscount),
	}, nil
}

func (h *CartHandler) respondCart(w http.ResponseWriter, status int, cart *domain.Cart) {
	view, err := h.view(cart)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, status, view)
}

func (h *CartHandler) opCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	cart, err := h.store.Refresh(ctx)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, cart)
}

type addItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var req addItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	cart, err := h.store.AddToCart(ctx, req.ProductID, req.Quantity)
	if err != nil {
		respondFailure(w, err)
		return
	}
	slog.InfoContext(ctx, "cart item added",
		"request_id", requestIDFromContext(r.Context()),
		"product_id", req.ProductID, "quantity", req.Quantity)
	h.respondCart(w, http.StatusCreated, cart)
}

type updateQuantityDTO struct {
	Quantity int `json:"quantity"`
}

// PATCH /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	var req updateQuantityDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.store.UpdateQuantity(ctx, productID, req.Quantity)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, cart)
}

// DELETE /api/v1/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	cart, err := h.store.RemoveFromCart(ctx, chi.URLParam(r, "item_id"))
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, cart)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	cart, err := h.store.ClearCart(ctx)
	if err != nil {
		respondFailure(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, cart)
}
