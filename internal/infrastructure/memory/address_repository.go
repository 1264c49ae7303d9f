package memory

import (
	"context"
	"sort"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
)

type addressRepository struct {
	st *state
}

func (r addressRepository) Get(ctx context.Context, id int64) (*domain.Address, error) {
	_ = ctx
	a, ok := r.st.addresses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r addressRepository) FindByFields(ctx context.Context, buyerID int64, fields domain.Fields) (*domain.Address, error) {
	_ = ctx
	for _, a := range r.st.addresses {
		if a.BuyerID == buyerID && a.Fields == fields {
			return a.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r addressRepository) ListActive(ctx context.Context, buyerID int64) ([]*domain.Address, error) {
	_ = ctx
	out := []*domain.Address{}
	for _, a := range r.st.addresses {
		if a.BuyerID == buyerID && a.IsActive {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LockBuyer is a no-op: Store.Do already excludes every other unit of work.
func (r addressRepository) LockBuyer(ctx context.Context, buyerID int64) error {
	_, _ = ctx, buyerID
	return nil
}

func (r addressRepository) CountActive(ctx context.Context, buyerID int64) (int, error) {
	_ = ctx
	n := 0
	for _, a := range r.st.addresses {
		if a.BuyerID == buyerID && a.IsActive {
			n++
		}
	}
	return n, nil
}

func (r addressRepository) Insert(ctx context.Context, a *domain.Address) error {
	_ = ctx
	if r.clashes(a) {
		return domain.ErrDuplicate
	}
	r.st.nextAddressID++
	a.ID = r.st.nextAddressID
	r.st.addresses[a.ID] = a.Clone()
	return nil
}

func (r addressRepository) Update(ctx context.Context, a *domain.Address) error {
	_ = ctx
	if _, ok := r.st.addresses[a.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.clashes(a) {
		return domain.ErrDuplicate
	}
	r.st.addresses[a.ID] = a.Clone()
	return nil
}

func (r addressRepository) Delete(ctx context.Context, id int64) error {
	_ = ctx
	if _, ok := r.st.addresses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.st.addresses, id)
	return nil
}

// clashes reports another address of the same buyer with identical fields.
func (r addressRepository) clashes(a *domain.Address) bool {
	for id, other := range r.st.addresses {
		if id != a.ID && other.BuyerID == a.BuyerID && other.Fields == a.Fields {
			return true
		}
	}
	return false
}
