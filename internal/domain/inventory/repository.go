package inventory

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, productID int64) (*Stock, error)
	// Decrement atomically removes amount units if at least that many remain and
	// returns the updated record. It never reads and writes in separate steps.
	Decrement(ctx context.Context, productID int64, amount int) (*Stock, error)
	SetWithdrawn(ctx context.Context, productID int64) error
	// Put creates or replaces a stock record.
	Put(ctx context.Context, stock *Stock) error
}
