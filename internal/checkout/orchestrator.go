package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/remote"
)

var (
	// ErrEmptyCart rejects checkout before any network call when there is
	// nothing to order.
	ErrEmptyCart = errors.New("the cart is empty, nothing to check out")

	// ErrCheckoutInFlight rejects a repeat submission while one is pending.
	ErrCheckoutInFlight = errors.New("a checkout is already in progress")
)

// IncompleteShippingError lists which mandatory fields were blank.
type IncompleteShippingError struct {
	Missing []string
}

func (e *IncompleteShippingError) Error() string {
	return fmt.Sprintf("shipping info is incomplete, missing: %v", e.Missing)
}

// CartSource is the slice of the cart store the orchestrator needs: the
// snapshot to validate and the refresh that makes the post-checkout empty
// cart visible locally.
type CartSource interface {
	Snapshot() *domain.Cart
	Refresh(ctx context.Context) (*domain.Cart, error)
}

// OrderPlacer issues the single order-creation call.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, req remote.CreateOrderRequest, idempotencyKey string) (*domain.Order, error)
}

// Orchestrator turns a cart snapshot into a placed order. One instance guards
// one user's checkout flow.
type Orchestrator struct {
	cart   CartSource
	orders OrderPlacer

	inFlight atomic.Bool
}

func NewOrchestrator(cart CartSource, orders OrderPlacer) *Orchestrator {
	return &Orchestrator{cart: cart, orders: orders}
}

// Checkout validates the cart and shipping info, then issues exactly one
// order-creation call carrying a fresh idempotency key.
//
// On success the cart store is refreshed so the server-side clear becomes
// visible. On any failure the cart is left untouched and the user can retry
// without re-entering items. A second Checkout while one is pending fails
// fast with ErrCheckoutInFlight; combined with the idempotency key this keeps
// a double-click from ever producing two orders.
func (o *Orchestrator) Checkout(ctx context.Context, shipping domain.ShippingInfo, paymentMethod string) (*domain.Order, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCheckoutInFlight
	}
	defer o.inFlight.Store(false)

	// Re-validate from the live snapshot, not whatever stale view the
	// caller happens to hold.
	snap := o.cart.Snapshot()
	if snap.IsEmpty() {
		return nil, ErrEmptyCart
	}
	for _, item := range snap.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("line %s has quantity %d, cart needs a refresh", item.ID, item.Quantity)
		}
	}

	if missing := shipping.MissingFields(); len(missing) > 0 {
		return nil, &IncompleteShippingError{Missing: missing}
	}

	order, err := o.orders.CreateOrder(ctx, remote.CreateOrderRequest{
		ShippingInfo:  shipping,
		PaymentMethod: paymentMethod,
	}, uuid.NewString())
	if err != nil {
		return nil, err
	}

	// The server already emptied the cart as part of order creation; pull
	// the canonical empty payload in. The order stands either way, so a
	// refresh failure is logged, not surfaced.
	if _, err := o.cart.Refresh(ctx); err != nil {
		slog.Warn("cart refresh after checkout failed", "order_id", order.ID, "err", err)
	}

	return order, nil
}
