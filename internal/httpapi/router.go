package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/cartstore"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/checkout"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
)

// Deps bundles what the router needs.
type Deps struct {
	Store        *cartstore.Store
	Orchestrator *checkout.Orchestrator
	Orders       OrdersAPI
	Display      *money.DisplayContext
	Timeout      time.Duration
}

// NewRouter wires the dashboard API.
func NewRouter(deps Deps) chi.Router {
	cart := NewCartHandler(deps.Store, deps.Display, deps.Timeout)
	chk := NewCheckoutHandler(deps.Orchestrator, deps.Display, deps.Timeout)
	orders := NewOrdersHandler(deps.Orders, deps.Display, deps.Timeout)
	currency := NewCurrencyHandler(deps.Display)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(ActorMiddleware)
	r.Use(middleware.Timeout(deps.Timeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Delete("/", cart.ClearCart)
			r.Post("/items", cart.AddItem)
			r.Patch("/items/{product_id}", cart.UpdateQuantity)
			r.Delete("/items/{item_id}", cart.RemoveItem)
		})
		r.Post("/checkout", chk.Checkout)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.ListOrders)
			r.Get("/{order_id}", orders.GetOrder)
			r.Patch("/{order_id}/status", orders.AdvanceStatus)
		})
		r.Get("/currencies", currency.List)
		r.Put("/currency", currency.Select)
	})

	return r
}
