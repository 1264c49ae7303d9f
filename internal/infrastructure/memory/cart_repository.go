package memory

import (
	"context"
	"sort"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

type cartRepository struct {
	st *state
}

func (r cartRepository) Upsert(ctx context.Context, line domain.Line) (bool, error) {
	_ = ctx
	key := lineKey{buyerID: line.BuyerID, productID: line.ProductID}
	_, exists := r.st.lines[key]
	r.st.lines[key] = line.Quantity
	return !exists, nil
}

func (r cartRepository) Delete(ctx context.Context, buyerID, productID int64) error {
	_ = ctx
	key := lineKey{buyerID: buyerID, productID: productID}
	if _, ok := r.st.lines[key]; !ok {
		return domain.ErrLineNotFound
	}
	delete(r.st.lines, key)
	return nil
}

func (r cartRepository) Positions(ctx context.Context, buyerID int64) ([]domain.Position, error) {
	_ = ctx
	positions := []domain.Position{}
	for key, qty := range r.st.lines {
		if key.buyerID != buyerID {
			continue
		}
		stock, ok := r.st.stock[key.productID]
		if !ok {
			return nil, dominv.ErrNotFound
		}
		positions = append(positions, domain.Position{
			Line:  domain.Line{BuyerID: buyerID, ProductID: key.productID, Quantity: qty},
			Stock: *stock.Clone(),
		})
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].ProductID < positions[j].ProductID
	})
	return positions, nil
}

func (r cartRepository) SetQuantity(ctx context.Context, buyerID, productID int64, quantity int) error {
	_ = ctx
	key := lineKey{buyerID: buyerID, productID: productID}
	if _, ok := r.st.lines[key]; !ok {
		return domain.ErrLineNotFound
	}
	r.st.lines[key] = quantity
	return nil
}

func (r cartRepository) Clear(ctx context.Context, buyerID int64) error {
	_ = ctx
	for key := range r.st.lines {
		if key.buyerID == buyerID {
			delete(r.st.lines, key)
		}
	}
	return nil
}
