package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/orderflow"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/remote"
)

type mockCartSource struct {
	mu        sync.Mutex
	cart      *domain.Cart
	refreshed atomic.Int32
}

func (m *mockCartSource) Snapshot() *domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

func (m *mockCartSource) Refresh(context.Context) (*domain.Cart, error) {
	m.refreshed.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = &domain.Cart{}
	return m.cart.Clone(), nil
}

type mockOrderPlacer struct {
	order *domain.Order
	err   error

	calls atomic.Int32
	keys  sync.Map
	block chan struct{} // when set, CreateOrder parks until closed
}

func (m *mockOrderPlacer) CreateOrder(_ context.Context, _ remote.CreateOrderRequest, idempotencyKey string) (*domain.Order, error) {
	m.calls.Add(1)
	m.keys.Store(idempotencyKey, struct{}{})
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func filledCart() *domain.Cart {
	return &domain.Cart{
		ID: "cart-1",
		Items: []domain.CartItem{
			{ID: "line-1", ProductID: "p-1", UnitPrice: money.FromUnits(10, 0), Quantity: 3},
		},
	}
}

func validShipping() domain.ShippingInfo {
	return domain.ShippingInfo{Name: "Awa Diallo", Phone: "+221 77 000 0000", City: "Dakar", Country: "SN"}
}

func placedOrder() *domain.Order {
	return &domain.Order{
		ID:           "order-1",
		TrackingCode: "TRK-0001",
		Status:       orderflow.StatusPending,
		Total:        money.FromUnits(30, 0),
		CreatedAt:    time.Now(),
	}
}

func TestCheckout_EmptyCartFailsWithoutNetworkCall(t *testing.T) {
	cart := &mockCartSource{cart: &domain.Cart{}}
	orders := &mockOrderPlacer{}
	orc := NewOrchestrator(cart, orders)

	_, err := orc.Checkout(context.Background(), validShipping(), "cash_on_delivery")

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, int32(0), orders.calls.Load())
}

func TestCheckout_MissingShippingFieldsFailBeforeNetwork(t *testing.T) {
	cart := &mockCartSource{cart: filledCart()}
	orders := &mockOrderPlacer{}
	orc := NewOrchestrator(cart, orders)

	shipping := validShipping()
	shipping.Phone = ""
	shipping.Country = ""

	_, err := orc.Checkout(context.Background(), shipping, "cash_on_delivery")

	var incomplete *IncompleteShippingError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []string{"phone", "country"}, incomplete.Missing)
	assert.Equal(t, int32(0), orders.calls.Load())
}

func TestCheckout_SuccessReturnsOrderAndClearsCart(t *testing.T) {
	cart := &mockCartSource{cart: filledCart()}
	orders := &mockOrderPlacer{order: placedOrder()}
	orc := NewOrchestrator(cart, orders)

	order, err := orc.Checkout(context.Background(), validShipping(), "cash_on_delivery")

	require.NoError(t, err)
	assert.Equal(t, "TRK-0001", order.TrackingCode)
	assert.Equal(t, int32(1), orders.calls.Load())
	assert.Equal(t, int32(1), cart.refreshed.Load())
	assert.True(t, cart.Snapshot().IsEmpty())
}

func TestCheckout_FailureLeavesCartUntouched(t *testing.T) {
	cart := &mockCartSource{cart: filledCart()}
	orders := &mockOrderPlacer{err: &remote.Rejection{Code: remote.CodePaymentFailed, Message: "card declined"}}
	orc := NewOrchestrator(cart, orders)

	_, err := orc.Checkout(context.Background(), validShipping(), "card")

	require.Error(t, err)
	assert.Equal(t, int32(0), cart.refreshed.Load())
	assert.False(t, cart.Snapshot().IsEmpty())
}

func TestCheckout_DoubleSubmitNeverCreatesTwoOrders(t *testing.T) {
	cart := &mockCartSource{cart: filledCart()}
	orders := &mockOrderPlacer{order: placedOrder(), block: make(chan struct{})}
	orc := NewOrchestrator(cart, orders)

	firstDone := make(chan error, 1)
	go func() {
		_, err := orc.Checkout(context.Background(), validShipping(), "card")
		firstDone <- err
	}()

	// Wait for the first submission to reach the remote call.
	require.Eventually(t, func() bool { return orders.calls.Load() == 1 },
		time.Second, 5*time.Millisecond)

	_, err := orc.Checkout(context.Background(), validShipping(), "card")
	require.ErrorIs(t, err, ErrCheckoutInFlight)

	close(orders.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, int32(1), orders.calls.Load())
}

func TestCheckout_FreshIdempotencyKeyPerAttempt(t *testing.T) {
	cart := &mockCartSource{cart: filledCart()}
	orders := &mockOrderPlacer{order: placedOrder()}
	orc := NewOrchestrator(cart, orders)

	_, err := orc.Checkout(context.Background(), validShipping(), "card")
	require.NoError(t, err)

	cart.mu.Lock()
	cart.cart = filledCart()
	cart.mu.Unlock()

	_, err = orc.Checkout(context.Background(), validShipping(), "card")
	require.NoError(t, err)

	var keys int
	orders.keys.Range(func(any, any) bool { keys++; return true })
	assert.Equal(t, 2, keys)
}

func TestCheckout_CanRetryAfterFailure(t *testing.T) {
	cart := &mockCartSource{cart: filledCart()}
	orders := &mockOrderPlacer{err: &remote.TransportError{Op: "POST /orders", Err: context.DeadlineExceeded}}
	orc := NewOrchestrator(cart, orders)

	_, err := orc.Checkout(context.Background(), validShipping(), "card")
	require.Error(t, err)

	orders.err = nil
	orders.order = placedOrder()

	order, err := orc.Checkout(context.Background(), validShipping(), "card")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}
