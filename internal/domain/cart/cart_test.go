package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

func stock(id int64, price string, qty int, status inventory.Status) inventory.Stock {
	return inventory.Stock{
		ProductID: id,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		Status:    status,
	}
}

func TestNewLine(t *testing.T) {
	tests := []struct {
		name    string
		stock   inventory.Stock
		qty     int
		wantErr error
	}{
		{"fits", stock(1, "10", 5, inventory.StatusInStock), 5, nil},
		{"zero quantity", stock(1, "10", 5, inventory.StatusInStock), 0, ErrInvalidQuantity},
		{"over stock", stock(1, "10", 5, inventory.StatusInStock), 6, ErrExceedsStock},
		{"sold", stock(1, "10", 0, inventory.StatusSold), 1, ErrProductUnavailable},
		{"withdrawn", stock(1, "10", 5, inventory.StatusWithdrawn), 1, ErrProductUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.stock
			line, err := NewLine(42, &s, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Line{BuyerID: 42, ProductID: 1, Quantity: tt.qty}, line)
		})
	}
}

func TestPartition(t *testing.T) {
	positions := []Position{
		{Line: Line{BuyerID: 1, ProductID: 1, Quantity: 2}, Stock: stock(1, "10.50", 5, inventory.StatusInStock)},
		{Line: Line{BuyerID: 1, ProductID: 2, Quantity: 4}, Stock: stock(2, "3.00", 3, inventory.StatusInStock)},
		{Line: Line{BuyerID: 1, ProductID: 3, Quantity: 1}, Stock: stock(3, "99", 0, inventory.StatusSold)},
		{Line: Line{BuyerID: 1, ProductID: 4, Quantity: 1}, Stock: stock(4, "1", 9, inventory.StatusWithdrawn)},
	}

	view, clamped := Partition(positions, 5)

	require.Len(t, view.Available, 2)
	require.Len(t, view.Unavailable, 2)
	assert.Equal(t, int64(3), view.Unavailable[0].ProductID)
	assert.Equal(t, int64(4), view.Unavailable[1].ProductID)

	require.Len(t, clamped, 1)
	assert.Equal(t, int64(2), clamped[0].ProductID)
	assert.Equal(t, 3, clamped[0].Quantity)
	assert.Equal(t, 3, view.Available[1].Quantity)

	// 2 * 10.50 + 3 * 3.00
	assert.Equal(t, "30.00000", view.Total.StringFixed(5))
}

func TestPartitionEmpty(t *testing.T) {
	view, clamped := Partition(nil, 5)
	assert.Empty(t, view.Available)
	assert.Empty(t, view.Unavailable)
	assert.Empty(t, clamped)
	assert.True(t, view.Total.IsZero())
}
