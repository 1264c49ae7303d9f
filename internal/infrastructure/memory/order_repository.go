package memory

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

type orderRepository struct {
	st *state
}

func (r orderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil {
		return fmt.Errorf("order repository: order is required")
	}
	r.st.nextOrderID++
	order.ID = r.st.nextOrderID
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}
	stored := order.Clone()
	stored.Lines = nil
	r.st.orders[order.ID] = stored
	return nil
}

func (r orderRepository) InsertLines(ctx context.Context, orderID int64, lines []domain.Line) error {
	_ = ctx
	order, ok := r.st.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	seen := make(map[int64]struct{}, len(order.Lines))
	for _, l := range order.Lines {
		seen[l.ProductID] = struct{}{}
	}
	for _, l := range lines {
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("order repository: product %d already on order %d", l.ProductID, orderID)
		}
		seen[l.ProductID] = struct{}{}
		l.OrderID = orderID
		order.Lines = append(order.Lines, l)
	}
	return nil
}

func (r orderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	_ = ctx
	order, ok := r.st.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r orderRepository) ListByBuyer(ctx context.Context, buyerID int64, day *domain.DayFilter) ([]*domain.Order, error) {
	_ = ctx
	out := []*domain.Order{}
	for _, o := range r.st.orders {
		if o.BuyerID == buyerID && day.Contains(o.CreatedAt) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	_ = ctx
	stored, ok := r.st.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	if order.DeliveredAt != nil {
		at := *order.DeliveredAt
		stored.DeliveredAt = &at
	}
	return nil
}

func (r orderRepository) ReferencesAddress(ctx context.Context, addressID int64) (bool, error) {
	_ = ctx
	for _, o := range r.st.orders {
		if o.AddressID == addressID {
			return true, nil
		}
	}
	return false, nil
}
