// Package notify delivers order-placed notifications to the configured transport.
package notify

import (
	"context"
	"encoding/json"

	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
)

// Message is the wire payload every transport carries.
type Message struct {
	OrderID        int64  `json:"order_id"`
	RecipientEmail string `json:"recipient_email"`
}

func encode(orderID int64, email string) ([]byte, error) {
	return json.Marshal(Message{OrderID: orderID, RecipientEmail: email})
}

// Decode parses a payload produced by any transport in this package.
func Decode(raw []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(raw, &m)
	return m, err
}

// LogNotifier writes notifications to the log instead of a broker. It is the
// default for local runs.
type LogNotifier struct {
	log observability.Logger
}

func NewLogNotifier(logger observability.Logger) *LogNotifier {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogNotifier{log: logger.With(observability.F("component", "notify_log"))}
}

func (n *LogNotifier) NotifyOrderPlaced(ctx context.Context, orderID int64, recipientEmail string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logctx.FromOr(ctx, n.log).Info("order_placed_notification",
		observability.F("order_id", orderID),
		observability.F("recipient_email", recipientEmail),
	)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
