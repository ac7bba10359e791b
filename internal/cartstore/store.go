package cartstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/pricing"
)

var (
	// ErrInvalidQuantity rejects add requests below 1 before any network call.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrItemNotInCart rejects updates addressed at a product the cart does
	// not hold.
	ErrItemNotInCart = errors.New("item is not in the cart")
)

// RemoteCart is the slice of the warehouse API the store depends on. Every
// mutation answers with the canonical cart payload.
type RemoteCart interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, itemID string) (*domain.Cart, error)
	ClearCart(ctx context.Context) (*domain.Cart, error)
}

// Store owns the local view of the server-held cart.
//
// Mutations apply an optimistic local change, fire the remote call, then
// reconcile: on success the server's canonical payload replaces local state
// wholesale (the server, not client arithmetic, is the merge authority); on
// any failure the optimistic change is rolled back to the last known-good
// server snapshot.
//
// Concurrency policy: operations on the same store QUEUE behind the in-flight
// one on a per-store mutex. A second writer is never rejected and two writers
// never interleave.
type Store struct {
	remote RemoteCart

	opMu sync.Mutex // serializes operations against the same cart

	stateMu  sync.RWMutex
	snapshot *domain.Cart
	version  uint64
}

func NewStore(remote RemoteCart) *Store {
	return &Store{remote: remote, snapshot: &domain.Cart{}}
}

// Snapshot returns a copy of the current local cart. Later store activity
// never mutates the returned value.
func (s *Store) Snapshot() *domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot.Clone()
}

// Version is the monotonically increasing tag of the applied snapshot.
func (s *Store) Version() uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.version
}

// Totals derives the pricing view of the current snapshot.
func (s *Store) Totals() (pricing.Totals, error) {
	snap := s.Snapshot()
	return pricing.CartTotals(snap.Items, snap.DiscountPercent)
}

// AddToCart adds quantity of a product. If the product is already in the
// cart the server increases the existing line instead of duplicating it.
func (s *Store) AddToCart(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	restore, opVersion := s.beginOp()

	// Optimistic bump is only possible for a line we already know the price
	// of; a brand-new product has no client-side price to speculate with.
	if item, ok := s.snapshotLocked().ItemByProduct(productID); ok {
		s.speculate(func(c *domain.Cart) {
			for i := range c.Items {
				if c.Items[i].ID == item.ID {
					c.Items[i].Quantity += quantity
				}
			}
		})
	}

	cart, err := s.remote.AddItem(ctx, productID, quantity)
	if err != nil {
		restore()
		return nil, err
	}
	s.applyServer(cart, opVersion)
	return s.Snapshot(), nil
}

// RemoveFromCart deletes a cart line by its id.
func (s *Store) RemoveFromCart(ctx context.Context, cartItemID string) (*domain.Cart, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	restore, opVersion := s.beginOp()

	s.speculate(func(c *domain.Cart) {
		for i, item := range c.Items {
			if item.ID == cartItemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return
			}
		}
	})

	cart, err := s.remote.RemoveItem(ctx, cartItemID)
	if err != nil {
		restore()
		return nil, err
	}
	s.applyServer(cart, opVersion)
	return s.Snapshot(), nil
}

// UpdateQuantity sets the quantity of the line holding productID.
//
// Quantities below 1 are a deliberate no-op with no network call: zero or
// negative is not a valid quantity state, and callers who mean removal must
// say so through RemoveFromCart. This keeps a stray decrement past 1 from
// silently deleting a line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, newQuantity int) (*domain.Cart, error) {
	if newQuantity < 1 {
		return s.Snapshot(), nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	item, ok := s.snapshotLocked().ItemByProduct(productID)
	if !ok {
		return nil, ErrItemNotInCart
	}

	restore, opVersion := s.beginOp()

	s.speculate(func(c *domain.Cart) {
		for i := range c.Items {
			if c.Items[i].ID == item.ID {
				c.Items[i].Quantity = newQuantity
			}
		}
	})

	cart, err := s.remote.UpdateItem(ctx, item.ID, newQuantity)
	if err != nil {
		restore()
		return nil, err
	}
	s.applyServer(cart, opVersion)
	return s.Snapshot(), nil
}

// ClearCart empties the cart remotely, then locally. No optimistic change is
// applied; an empty local cart with live server lines would be worse than a
// short wait.
func (s *Store) ClearCart(ctx context.Context) (*domain.Cart, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	_, opVersion := s.beginOp()

	cart, err := s.remote.ClearCart(ctx)
	if err != nil {
		return nil, err
	}
	s.applyServer(cart, opVersion)
	return s.Snapshot(), nil
}

// Refresh re-fetches the canonical cart, used after mutations that happen
// outside the store, checkout above all.
func (s *Store) Refresh(ctx context.Context) (*domain.Cart, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	_, opVersion := s.beginOp()

	cart, err := s.remote.GetCart(ctx)
	if err != nil {
		return nil, err
	}
	s.applyServer(cart, opVersion)
	return s.Snapshot(), nil
}

// beginOp captures the last known-good snapshot and allocates the version the
// server response will be tagged with. The returned restore func rolls any
// speculative change back.
func (s *Store) beginOp() (restore func(), opVersion uint64) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	saved := s.snapshot.Clone()
	savedVersion := s.version
	opVersion = s.version + 1

	return func() {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		s.snapshot = saved
		s.version = savedVersion
	}, opVersion
}

// speculate applies an optimistic local edit to a fresh copy of the snapshot.
func (s *Store) speculate(edit func(*domain.Cart)) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	next := s.snapshot.Clone()
	edit(next)
	s.snapshot = next
}

// applyServer replaces local state with the server's canonical payload.
// A response tagged with a version older than what is already applied is
// stale and gets discarded.
func (s *Store) applyServer(cart *domain.Cart, opVersion uint64) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if opVersion < s.version {
		slog.Warn("discarding stale cart payload", "op_version", opVersion, "applied_version", s.version)
		return
	}
	if cart == nil {
		cart = &domain.Cart{}
	}
	s.snapshot = cart.Clone()
	s.version = opVersion
}

func (s *Store) snapshotLocked() *domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot
}
