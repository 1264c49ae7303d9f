package order

import "time"

// OrderPlacedEvent is emitted after a cart conversion commits.
// It drives the invoice notification to the buyer.
type OrderPlacedEvent struct {
	OrderID    int64
	BuyerID    int64
	BuyerEmail string
	Lines      int
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order, buyerEmail string) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		BuyerEmail: buyerEmail,
		Lines:      len(o.Lines),
		OccurredAt: time.Now().UTC(),
	}
}
