package cartstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
)

// fakeRemote behaves like the real service: it owns the canonical cart,
// merges duplicate lines and answers every mutation with the full payload.
type fakeRemote struct {
	mu      sync.Mutex
	cart    domain.Cart
	prices  map[string]money.Money
	calls   atomic.Int32
	failErr error

	// inFlight trips the overlap detector when two operations run at once.
	inFlight atomic.Bool
	overlap  atomic.Bool
	nextID   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		prices: map[string]money.Money{
			"p-1": money.FromUnits(10, 0),
			"p-2": money.FromUnits(2, 50),
		},
	}
}

func (f *fakeRemote) enter() func() {
	if !f.inFlight.CompareAndSwap(false, true) {
		f.overlap.Store(true)
	}
	f.calls.Add(1)
	f.mu.Lock()
	return func() {
		f.mu.Unlock()
		f.inFlight.Store(false)
	}
}

func (f *fakeRemote) payload() *domain.Cart {
	return f.cart.Clone()
}

func (f *fakeRemote) GetCart(context.Context) (*domain.Cart, error) {
	defer f.enter()()
	if f.failErr != nil {
		return nil, f.failErr
	}
	return f.payload(), nil
}

func (f *fakeRemote) AddItem(_ context.Context, productID string, quantity int) (*domain.Cart, error) {
	defer f.enter()()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for i := range f.cart.Items {
		if f.cart.Items[i].ProductID == productID {
			f.cart.Items[i].Quantity += quantity
			return f.payload(), nil
		}
	}
	f.nextID++
	f.cart.Items = append(f.cart.Items, domain.CartItem{
		ID:        fmt.Sprintf("line-%d", f.nextID),
		ProductID: productID,
		UnitPrice: f.prices[productID],
		Quantity:  quantity,
	})
	return f.payload(), nil
}

func (f *fakeRemote) UpdateItem(_ context.Context, itemID string, quantity int) (*domain.Cart, error) {
	defer f.enter()()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for i := range f.cart.Items {
		if f.cart.Items[i].ID == itemID {
			f.cart.Items[i].Quantity = quantity
			return f.payload(), nil
		}
	}
	return nil, errors.New("line not found")
}

func (f *fakeRemote) RemoveItem(_ context.Context, itemID string) (*domain.Cart, error) {
	defer f.enter()()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for i := range f.cart.Items {
		if f.cart.Items[i].ID == itemID {
			f.cart.Items = append(f.cart.Items[:i], f.cart.Items[i+1:]...)
			break
		}
	}
	return f.payload(), nil
}

func (f *fakeRemote) ClearCart(context.Context) (*domain.Cart, error) {
	defer f.enter()()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.cart.Items = nil
	return f.payload(), nil
}

func TestAddToCart_InvalidQuantityNeverCallsRemote(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)

	_, err := store.AddToCart(context.Background(), "p-1", 0)

	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, int32(0), remote.calls.Load())
}

func TestAddToCart_ServerPayloadReplacesLocalState(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)

	cart, err := store.AddToCart(context.Background(), "p-1", 2)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(1000), cart.Items[0].UnitPrice.AmountMinor)
}

func TestAddToCart_ExistingProductMergesIntoOneLine(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)

	_, err := store.AddToCart(context.Background(), "p-1", 1)
	require.NoError(t, err)
	cart, err := store.AddToCart(context.Background(), "p-1", 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddToCart_FailureRollsBackOptimisticChange(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	_, err := store.AddToCart(context.Background(), "p-1", 1)
	require.NoError(t, err)
	before := store.Snapshot()
	beforeVersion := store.Version()

	remote.failErr = errors.New("network down")
	_, err = store.AddToCart(context.Background(), "p-1", 5)

	require.Error(t, err)
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, beforeVersion, store.Version())
}

func TestUpdateQuantity_BelowOneIsANoOp(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	_, err := store.AddToCart(context.Background(), "p-1", 3)
	require.NoError(t, err)
	callsBefore := remote.calls.Load()

	for _, q := range []int{0, -1, -99} {
		cart, err := store.UpdateQuantity(context.Background(), "p-1", q)

		require.NoError(t, err)
		assert.Equal(t, 3, cart.Items[0].Quantity)
	}
	assert.Equal(t, callsBefore, remote.calls.Load())
}

func TestUpdateQuantity_UnknownProductRejectedLocally(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	callsBefore := remote.calls.Load()

	_, err := store.UpdateQuantity(context.Background(), "ghost", 2)

	require.ErrorIs(t, err, ErrItemNotInCart)
	assert.Equal(t, callsBefore, remote.calls.Load())
}

func TestUpdateQuantity_FailureRollsBack(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	_, err := store.AddToCart(context.Background(), "p-1", 3)
	require.NoError(t, err)

	remote.failErr = errors.New("timeout")
	_, err = store.UpdateQuantity(context.Background(), "p-1", 7)

	require.Error(t, err)
	assert.Equal(t, 3, store.Snapshot().Items[0].Quantity)
}

func TestRemoveFromCart_RemovesTheLine(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	cart, err := store.AddToCart(context.Background(), "p-1", 1)
	require.NoError(t, err)
	_, err = store.AddToCart(context.Background(), "p-2", 2)
	require.NoError(t, err)

	after, err := store.RemoveFromCart(context.Background(), cart.Items[0].ID)

	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, "p-2", after.Items[0].ProductID)
}

func TestClearCart_EmptiesRemotelyThenLocally(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	_, err := store.AddToCart(context.Background(), "p-1", 1)
	require.NoError(t, err)

	cart, err := store.ClearCart(context.Background())

	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.True(t, store.Snapshot().IsEmpty())
}

func TestClearCart_FailureKeepsLocalState(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	_, err := store.AddToCart(context.Background(), "p-1", 1)
	require.NoError(t, err)

	remote.failErr = errors.New("boom")
	_, err = store.ClearCart(context.Background())

	require.Error(t, err)
	assert.False(t, store.Snapshot().IsEmpty())
}

func TestSubtotal_MatchesLineSumAfterMixedOperations(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	ctx := context.Background()

	_, err := store.AddToCart(ctx, "p-1", 2)
	require.NoError(t, err)
	_, err = store.AddToCart(ctx, "p-2", 4)
	require.NoError(t, err)
	_, err = store.UpdateQuantity(ctx, "p-2", 1)
	require.NoError(t, err)
	_, err = store.AddToCart(ctx, "p-1", 1)
	require.NoError(t, err)

	totals, err := store.Totals()
	require.NoError(t, err)

	var want int64
	for _, item := range store.Snapshot().Items {
		want += item.UnitPrice.AmountMinor * int64(item.Quantity)
	}
	assert.Equal(t, want, totals.Subtotal.AmountMinor)
	assert.Equal(t, int64(3250), totals.Subtotal.AmountMinor) // 3×10.00 + 1×2.50
}

func TestMutations_QueueInsteadOfInterleaving(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddToCart(ctx, "p-1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, remote.overlap.Load(), "two mutations reached the remote at the same time")
	require.Len(t, store.Snapshot().Items, 1)
	assert.Equal(t, 20, store.Snapshot().Items[0].Quantity)
}

func TestRefresh_PicksUpExternalMutation(t *testing.T) {
	remote := newFakeRemote()
	store := NewStore(remote)
	_, err := store.AddToCart(context.Background(), "p-1", 1)
	require.NoError(t, err)

	// Checkout on the server side empties the cart behind the store's back.
	remote.mu.Lock()
	remote.cart.Items = nil
	remote.mu.Unlock()

	cart, err := store.Refresh(context.Background())

	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
