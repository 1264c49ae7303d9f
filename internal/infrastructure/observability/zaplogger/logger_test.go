package zaplogger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
)

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core), observability.F("component", "test"))

	l.With(observability.F("order_id", int64(3))).Warn("stock_low",
		observability.F("error", errors.New("boom")),
		observability.F("left", 1),
	)
	l.Debug("quiet")

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, first.Level)
	fields := first.ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, int64(3), fields["order_id"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, int64(1), fields["left"])

	assert.Equal(t, 1, logs.FilterMessage("quiet").Len())
}
