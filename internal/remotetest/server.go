// Package remotetest serves an in-memory implementation of the warehouse
// service contract over httptest, for exercising the client stack without a
// network.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/orderflow"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/pricing"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/remote"
)

// Product is a catalog entry with finite stock.
type Product struct {
	ID             string
	Name           string
	UnitPriceMinor int64
	Stock          int
}

// Server holds the canonical cart and orders the way the real service does.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	products    map[string]Product
	cart        domain.Cart
	orders      map[string]*domain.Order
	orderByKey  map[string]string // idempotency key -> order id
	token       string
	nextLine    int
	failNext    int // next N requests answer 503
	rejectToken bool
}

// New starts a server seeded with the given catalog. token, when non-empty,
// is the only accepted bearer token.
func New(token string, products ...Product) *Server {
	s := &Server{
		products:   make(map[string]Product, len(products)),
		orders:     make(map[string]*domain.Order),
		orderByKey: make(map[string]string),
		token:      token,
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	r := chi.NewRouter()
	r.Use(s.authenticate)
	r.Get("/cart", s.getCart)
	r.Post("/cart/items", s.addItem)
	r.Patch("/cart/items/{item_id}", s.updateItem)
	r.Delete("/cart/items/{item_id}", s.removeItem)
	r.Delete("/cart", s.clearCart)
	r.Post("/orders", s.createOrder)
	r.Get("/orders", s.listOrders)
	r.Get("/orders/{order_id}", s.getOrder)
	r.Patch("/orders/{order_id}/status", s.advanceOrder)

	s.Server = httptest.NewServer(r)
	return s
}

// FailNext makes the following n requests answer 503, to provoke transport
// failures and breaker trips.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// RejectTokens makes the server answer 401 to everything, simulating an
// expired session.
func (s *Server) RejectTokens(reject bool) {
	s.mu.Lock()
	s.rejectToken = reject
	s.mu.Unlock()
}

// Orders returns the orders placed so far.
func (s *Server) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		reject := s.rejectToken
		token := s.token
		s.mu.Unlock()

		if fail {
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "service temporarily unavailable")
			return
		}
		if reject {
			writeError(w, http.StatusUnauthorized, "AUTH_EXPIRED", "session expired")
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "AUTH_EXPIRED", "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.cart.Clone())
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, remote.CodeInvalidQuantity, "quantity must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[req.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, remote.CodeNotFound, "no such product")
		return
	}

	held := 0
	if item, ok := s.cart.ItemByProduct(req.ProductID); ok {
		held = item.Quantity
	}
	if held+req.Quantity > product.Stock {
		writeError(w, http.StatusConflict, remote.CodeOutOfStock,
			fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name))
		return
	}

	merged := false
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == req.ProductID {
			s.cart.Items[i].Quantity += req.Quantity
			merged = true
		}
	}
	if !merged {
		s.nextLine++
		s.cart.Items = append(s.cart.Items, domain.CartItem{
			ID:          fmt.Sprintf("line-%d", s.nextLine),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   money.FromMinor(product.UnitPriceMinor),
			Quantity:    req.Quantity,
		})
	}
	writeJSON(w, http.StatusOK, s.cart.Clone())
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, remote.CodeInvalidQuantity, "quantity must be at least 1")
		return
	}

	itemID := chi.URLParam(r, "item_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			s.cart.Items[i].Quantity = req.Quantity
			writeJSON(w, http.StatusOK, s.cart.Clone())
			return
		}
	}
	writeError(w, http.StatusNotFound, remote.CodeNotFound, "no such cart line")
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.cart.Items {
		if item.ID == itemID {
			s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
			writeJSON(w, http.StatusOK, s.cart.Clone())
			return
		}
	}
	writeError(w, http.StatusNotFound, remote.CodeNotFound, "no such cart line")
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Items = nil
	writeJSON(w, http.StatusOK, s.cart.Clone())
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req remote.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if key := r.Header.Get("Idempotency-Key"); key != "" {
		if orderID, ok := s.orderByKey[key]; ok {
			writeJSON(w, http.StatusOK, s.orders[orderID])
			return
		}
	}

	if s.cart.IsEmpty() {
		writeError(w, http.StatusConflict, remote.CodeEmptyCart, "cart is empty")
		return
	}
	if missing := req.ShippingInfo.MissingFields(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, remote.CodeIncompleteShipping,
			"missing shipping fields: "+strings.Join(missing, ", "))
		return
	}

	totals, err := pricing.CartTotals(s.cart.Items, s.cart.DiscountPercent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	items := make([]domain.OrderItem, 0, len(s.cart.Items))
	for _, line := range s.cart.Items {
		items = append(items, domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}

	order := &domain.Order{
		ID:           uuid.NewString(),
		TrackingCode: fmt.Sprintf("TRK-%06d", len(s.orders)+1),
		Customer:     req.ShippingInfo.Name,
		Items:        items,
		Shipping:     req.ShippingInfo,
		Status:       orderflow.StatusPending,
		Total:        totals.TotalAfterDiscount,
		CreatedAt:    time.Now().UTC(),
	}
	s.orders[order.ID] = order
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		s.orderByKey[key] = order.ID
	}
	s.cart.Items = nil

	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Orders())
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[chi.URLParam(r, "order_id")]
	if !ok {
		writeError(w, http.StatusNotFound, remote.CodeNotFound, "no such order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) advanceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	target, ok := orderflow.Parse(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, remote.CodeInvalidTransition, "unknown status "+req.Status)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, found := s.orders[chi.URLParam(r, "order_id")]
	if !found {
		writeError(w, http.StatusNotFound, remote.CodeNotFound, "no such order")
		return
	}
	if !orderflow.CanAdvance(order.Status, target) {
		writeError(w, http.StatusConflict, remote.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		return
	}
	order.Status = target
	writeJSON(w, http.StatusOK, order)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
