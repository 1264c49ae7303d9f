package cart

import "context"

type Repository interface {
	// Upsert creates or replaces the line for its (buyer, product) pair and reports whether it was created.
	Upsert(ctx context.Context, line Line) (bool, error)
	Delete(ctx context.Context, buyerID, productID int64) error
	// Positions lists the buyer's lines joined with current stock, ordered by product.
	Positions(ctx context.Context, buyerID int64) ([]Position, error)
	SetQuantity(ctx context.Context, buyerID, productID int64, quantity int) error
	Clear(ctx context.Context, buyerID int64) error
}
