package inventory

import "time"

// StockDepletedEvent is emitted when a conversion sells the last unit of a product.
type StockDepletedEvent struct {
	ProductID  int64
	OrderID    int64
	OccurredAt time.Time
}

func (StockDepletedEvent) EventName() string { return "inventory.depleted" }

func NewStockDepletedEvent(productID, orderID int64) StockDepletedEvent {
	return StockDepletedEvent{
		ProductID:  productID,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	}
}
