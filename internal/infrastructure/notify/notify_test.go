package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
)

func TestMessageWireFormat(t *testing.T) {
	raw, err := encode(42, "buyer@example.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":42,"recipient_email":"buyer@example.com"}`, string(raw))

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Message{OrderID: 42, RecipientEmail: "buyer@example.com"}, msg)

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zaplogger.New(zap.New(core)))

	require.NoError(t, n.NotifyOrderPlaced(context.Background(), 7, "buyer@example.com"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "order_placed_notification", entry.Message)
	assert.Equal(t, int64(7), entry.ContextMap()["order_id"])
	assert.Equal(t, "buyer@example.com", entry.ContextMap()["recipient_email"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyOrderPlaced(ctx, 8, "x@example.com"), context.Canceled)
	assert.NoError(t, n.Close())
}
