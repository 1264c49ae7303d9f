package address

import "context"

type Repository interface {
	Get(ctx context.Context, id int64) (*Address, error)
	FindByFields(ctx context.Context, buyerID int64, fields Fields) (*Address, error)
	ListActive(ctx context.Context, buyerID int64) ([]*Address, error)
	// LockBuyer serializes cap checks and deletes for one buyer until the surrounding transaction ends.
	LockBuyer(ctx context.Context, buyerID int64) error
	CountActive(ctx context.Context, buyerID int64) (int, error)
	// Insert stores a new address and assigns its ID. ErrDuplicate on a structural clash.
	Insert(ctx context.Context, a *Address) error
	// Update rewrites fields and the active flag. ErrDuplicate on a structural clash.
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id int64) error
}
