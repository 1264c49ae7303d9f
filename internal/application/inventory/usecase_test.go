package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/memory"
)

func newLedger(t *testing.T, productID int64, qty int) *Ledger {
	t.Helper()
	l := NewLedger(memory.NewStore(), nil)
	s, err := dominv.NewStock(productID, decimal.NewFromInt(10), qty)
	require.NoError(t, err)
	require.NoError(t, l.Put(context.Background(), s))
	return l
}

func TestLedgerDecrement(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1, 5)

	left, err := l.Decrement(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	_, err = l.Decrement(ctx, 1, 3)
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)

	_, err = l.Decrement(ctx, 1, 0)
	assert.ErrorIs(t, err, dominv.ErrInvalidQuantity)

	_, err = l.Decrement(ctx, 99, 1)
	assert.ErrorIs(t, err, dominv.ErrNotFound)

	left, err = l.Decrement(ctx, 1, 2)
	require.NoError(t, err)
	assert.Zero(t, left)

	s, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, dominv.StatusSold, s.Status)
}

func TestLedgerConcurrentDecrementsNeverOversell(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1, 10)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Decrement(ctx, 1, 1); err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	s, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, s.Quantity)
}

func TestLedgerWithdraw(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1, 5)

	require.NoError(t, l.Withdraw(ctx, 1))
	s, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, dominv.StatusWithdrawn, s.Status)
	assert.Equal(t, 5, s.Quantity)

	assert.ErrorIs(t, l.Withdraw(ctx, 2), dominv.ErrNotFound)
	_, err = l.Get(ctx, 2)
	assert.ErrorIs(t, err, dominv.ErrNotFound)
}

func TestLedgerPutKeepsWithdrawn(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 1, 5)
	require.NoError(t, l.Withdraw(ctx, 1))

	restocked, err := dominv.NewStock(1, decimal.NewFromInt(12), 7)
	require.NoError(t, err)
	require.NoError(t, l.Put(ctx, restocked))
	assert.Equal(t, dominv.StatusWithdrawn, restocked.Status)

	s, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, dominv.StatusWithdrawn, s.Status)
	assert.Equal(t, 7, s.Quantity)
	assert.True(t, decimal.NewFromInt(12).Equal(s.Price))

	sold, err := dominv.NewStock(2, decimal.NewFromInt(1), 0)
	require.NoError(t, err)
	require.NoError(t, l.Put(ctx, sold))
	s, err = l.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, dominv.StatusSold, s.Status)
}
