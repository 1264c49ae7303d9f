package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

func (f *fixture) placeOrder(t *testing.T, buyerID int64) int64 {
	t.Helper()
	f.add(t, buyerID, 1, 1)
	res, err := f.convert.Execute(context.Background(), input(buyerID, "10"))
	require.NoError(t, err)
	return res.OrderID
}

func TestHistoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, 1, "1", 10)

	first := f.placeOrder(t, 7)
	second := f.placeOrder(t, 7)
	f.placeOrder(t, 8)

	orders, err := f.history.List(ctx, 7, "")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, first, orders[1].ID)

	today := time.Now().UTC().Format("2006-01-02")
	orders, err = f.history.List(ctx, 7, today)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = f.history.List(ctx, 7, "2001-01-01")
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.history.List(ctx, 7, "yesterday")
	assert.ErrorIs(t, err, application.ErrValidation)
}

func TestHistoryGetChecksOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, 1, "1", 10)
	id := f.placeOrder(t, 7)

	_, err := f.history.Get(ctx, 8, id)
	assert.ErrorIs(t, err, application.ErrPermissionDenied)

	_, err = f.history.Get(ctx, 7, id+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryChangeStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, 1, "1", 10)
	id := f.placeOrder(t, 7)

	for _, to := range []domain.Status{domain.StatusConfirmed, domain.StatusAssembled, domain.StatusSent, domain.StatusDelivered} {
		o, err := f.history.ChangeStatus(ctx, id, to)
		require.NoError(t, err)
		assert.Equal(t, to, o.Status)
	}

	details, err := f.history.Get(ctx, 7, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, details.Order.Status)
	assert.NotNil(t, details.Order.DeliveredAt)

	_, err = f.history.ChangeStatus(ctx, id, domain.StatusCanceled)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.history.ChangeStatus(ctx, id+100, domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
