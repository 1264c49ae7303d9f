package order

import "context"

type Repository interface {
	// Insert stores the order header, assigns its ID and stamps the ID onto its lines.
	Insert(ctx context.Context, o *Order) error
	InsertLines(ctx context.Context, orderID int64, lines []Line) error
	Get(ctx context.Context, id int64) (*Order, error)
	// ListByBuyer returns the buyer's orders newest first, optionally restricted to one creation day.
	ListByBuyer(ctx context.Context, buyerID int64, day *DayFilter) ([]*Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
	ReferencesAddress(ctx context.Context, addressID int64) (bool, error)
}
