package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domaddr "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

var _ application.UnitOfWork = (*Store)(nil)

// Store keeps every aggregate in process memory. Units of work run one at a time
// and a failed unit of work restores the state it started from.
type Store struct {
	mu    sync.Mutex
	state *state
}

type lineKey struct {
	buyerID   int64
	productID int64
}

type state struct {
	stock     map[int64]*dominv.Stock
	lines     map[lineKey]int
	addresses map[int64]*domaddr.Address
	orders    map[int64]*domorder.Order

	nextAddressID int64
	nextOrderID   int64
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func newState() *state {
	return &state{
		stock:     make(map[int64]*dominv.Stock),
		lines:     make(map[lineKey]int),
		addresses: make(map[int64]*domaddr.Address),
		orders:    make(map[int64]*domorder.Order),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, st := range s.stock {
		c.stock[id] = st.Clone()
	}
	for k, q := range s.lines {
		c.lines[k] = q
	}
	for id, a := range s.addresses {
		c.addresses[id] = a.Clone()
	}
	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}
	c.nextAddressID = s.nextAddressID
	c.nextOrderID = s.nextOrderID
	return c
}

// Do runs fn with exclusive access to the store.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, tx{st: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

type tx struct {
	st *state
}

func (t tx) Stock() dominv.Repository      { return inventoryRepository{st: t.st} }
func (t tx) Carts() domcart.Repository     { return cartRepository{st: t.st} }
func (t tx) Addresses() domaddr.Repository { return addressRepository{st: t.st} }
func (t tx) Orders() domorder.Repository   { return orderRepository{st: t.st} }

