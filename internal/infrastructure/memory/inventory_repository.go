package memory

import (
	"context"
	"time"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

type inventoryRepository struct {
	st *state
}

func (r inventoryRepository) Get(ctx context.Context, productID int64) (*domain.Stock, error) {
	_ = ctx
	item, ok := r.st.stock[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Clone(), nil
}

func (r inventoryRepository) Decrement(ctx context.Context, productID int64, amount int) (*domain.Stock, error) {
	_ = ctx
	item, ok := r.st.stock[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := item.Deduct(amount); err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

func (r inventoryRepository) SetWithdrawn(ctx context.Context, productID int64) error {
	_ = ctx
	item, ok := r.st.stock[productID]
	if !ok {
		return domain.ErrNotFound
	}
	item.Withdraw()
	return nil
}

func (r inventoryRepository) Put(ctx context.Context, item *domain.Stock) error {
	_ = ctx
	if item == nil {
		return nil
	}
	clone := item.Clone()
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = time.Now().UTC()
	}
	r.st.stock[item.ProductID] = clone
	return nil
}
