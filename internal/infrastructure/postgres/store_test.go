package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domaddr "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

// newTestStore connects to TEST_DATABASE_URL and skips when it is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	return NewStore(pool)
}

// uniqueID keeps runs against a shared database apart.
func uniqueID() int64 { return time.Now().UnixNano() / 1000 }

func TestStoreDecrementIsConditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	productID := uniqueID()

	stock, err := dominv.NewStock(productID, decimal.RequireFromString("9.99"), 10)
	require.NoError(t, err)
	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Stock().Put(ctx, stock)
	}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
				_, err := tx.Stock().Decrement(ctx, productID, 1)
				return err
			})
			if err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, sold)

	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		got, err := tx.Stock().Get(ctx, productID)
		if err != nil {
			return err
		}
		assert.Zero(t, got.Quantity)
		assert.Equal(t, dominv.StatusSold, got.Status)
		assert.Equal(t, "9.99", got.Price.StringFixed(dominv.PricePlaces))
		return nil
	}))
}

func TestStoreRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	buyerID := uniqueID()
	errAbort := errors.New("abort")

	err := s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		a := &domaddr.Address{
			BuyerID:  buyerID,
			Fields:   domaddr.Fields{City: "Moscow", Street: "Arbat", House: "1"},
			IsActive: true,
		}
		if err := tx.Addresses().Insert(ctx, a); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		n, err := tx.Addresses().CountActive(ctx, buyerID)
		assert.Zero(t, n)
		return err
	}))
}

func TestStoreCartPositions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	buyerID, productID := uniqueID(), uniqueID()+1

	stock, err := dominv.NewStock(productID, decimal.RequireFromString("2.5"), 3)
	require.NoError(t, err)
	line, err := domcart.NewLine(buyerID, stock, 2)
	require.NoError(t, err)

	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		if err := tx.Stock().Put(ctx, stock); err != nil {
			return err
		}
		created, err := tx.Carts().Upsert(ctx, line)
		assert.True(t, created)
		return err
	}))

	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		ps, err := tx.Carts().Positions(ctx, buyerID)
		if err != nil {
			return err
		}
		require.Len(t, ps, 1)
		assert.Equal(t, 2, ps[0].Quantity)
		assert.Equal(t, 3, ps[0].Stock.Quantity)
		return nil
	}))

	err = s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Carts().SetQuantity(ctx, buyerID, productID, 0)
	})
	assert.True(t, isCheckViolation(err), "zero quantity must be rejected: %v", err)

	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Carts().Clear(ctx, buyerID)
	}))
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

func TestStorePutKeepsWithdrawn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	productID := uniqueID()

	stock, err := dominv.NewStock(productID, decimal.RequireFromString("3"), 2)
	require.NoError(t, err)
	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		if err := tx.Stock().Put(ctx, stock); err != nil {
			return err
		}
		return tx.Stock().SetWithdrawn(ctx, productID)
	}))

	restocked, err := dominv.NewStock(productID, decimal.RequireFromString("3"), 9)
	require.NoError(t, err)
	require.NoError(t, s.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		if err := tx.Stock().Put(ctx, restocked); err != nil {
			return err
		}
		got, err := tx.Stock().Get(ctx, productID)
		if err != nil {
			return err
		}
		assert.Equal(t, dominv.StatusWithdrawn, got.Status)
		assert.Equal(t, 9, got.Quantity)
		return nil
	}))
}
