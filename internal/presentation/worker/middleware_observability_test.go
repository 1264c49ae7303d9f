package workerpresentation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
)

type placed struct{}

func (placed) EventName() string { return "order.placed" }

func TestEventContextBindsTraceAndEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	decorate := EventContext(zaplogger.New(zap.New(core)))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xa},
		SpanID:     trace.SpanID{0xb},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := decorate(context.Background(), placed{}, sc)

	assert.True(t, trace.SpanContextFromContext(ctx).IsRemote())
	logger := logctx.From(ctx)
	require.NotNil(t, logger)
	logger.Info("handled")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "order.placed", fields["event"])
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
	assert.NotEmpty(t, fields["event_id"])
}

func TestWithEventContextWithoutTrace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithEventContext(context.Background(), zaplogger.New(zap.New(core)),
		trace.TraceID{}, trace.SpanID{}, map[string]string{"event_id": "evt-1", "queue": ""})

	logctx.From(ctx).Info("handled")
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "evt-1", fields["event_id"])
	assert.NotContains(t, fields, "trace_id")
	assert.NotContains(t, fields, "queue")

	assert.NotNil(t, logctx.From(WithEventContext(context.Background(), nil, trace.TraceID{}, trace.SpanID{}, nil)))
}
