package order

import (
	"context"
)

// Notifier delivers the invoice notification for a placed order.
// It is called off the request path; its errors never fail a conversion.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, orderID int64, recipientEmail string) error
}
