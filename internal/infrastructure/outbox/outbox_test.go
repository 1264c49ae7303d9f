package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
)

type testEvent string

func (e testEvent) EventName() string { return string(e) }

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]float64
}

func (m *countingMetrics) Counter(observability.MetricKey) observability.Counter { return m }
func (m *countingMetrics) Histogram(observability.MetricKey) observability.Histogram {
	return observability.NopHistogram()
}

func (m *countingMetrics) Add(d float64, labels ...observability.Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ""
	for _, l := range labels {
		key += l.Key + "=" + l.Value + ";"
	}
	m.counts[key] += d
}

func (m *countingMetrics) Bind(...observability.Label) observability.BoundCounter {
	return observability.NopCounter().Bind()
}

func (m *countingMetrics) get(event, outcome string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts["event="+event+";outcome="+outcome+";"]
}

type testTel struct{ m *countingMetrics }

func (t testTel) Tracer() observability.Tracer   { return observability.NopTracer() }
func (t testTel) Logger() observability.Logger   { return observability.NopLogger() }
func (t testTel) Metrics() observability.Metrics { return t.m }

func newTestBus(opts ...Option) (*Bus, *countingMetrics) {
	m := &countingMetrics{counts: map[string]float64{}}
	return NewBus(testTel{m: m}, opts...), m
}

func TestBusDeliversWithPublisherTrace(t *testing.T) {
	bus, metrics := newTestBus()
	got := make(chan trace.SpanContext, 1)
	bus.Subscribe("order.placed", func(ctx context.Context, e domoutbox.Event) error {
		got <- trace.SpanContextFromContext(ctx)
		return nil
	})
	bus.Start(context.Background())

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	require.NoError(t, bus.Publish(ctx, testEvent("order.placed")))

	select {
	case handled := <-got:
		assert.Equal(t, sc.TraceID(), handled.TraceID())
		assert.True(t, handled.IsRemote())
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	bus.Stop(context.Background())
	assert.Equal(t, float64(1), metrics.get("order.placed", "enqueued"))
	assert.Equal(t, float64(1), metrics.get("order.placed", "handled"))
}

func TestBusStopDrainsQueue(t *testing.T) {
	bus, metrics := newTestBus()
	var mu sync.Mutex
	seen := 0
	bus.Subscribe("tick", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent("tick")))
	}
	require.NoError(t, bus.Publish(context.Background(), testEvent("nobody.listens")))
	bus.Start(context.Background())
	bus.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, seen)
	assert.Equal(t, float64(1), metrics.get("nobody.listens", "dropped"))
}

func TestBusIsolatesHandlerFailures(t *testing.T) {
	bus, metrics := newTestBus(WithConcurrency(2))
	done := make(chan struct{}, 1)
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		panic("handler bug")
	})
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		return assert.AnError
	})
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		done <- struct{}{}
		return nil
	})
	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent("x")))
	bus.Stop(context.Background())

	assert.Len(t, done, 1)
	assert.Equal(t, float64(1), metrics.get("x", "panic"))
	assert.Equal(t, float64(1), metrics.get("x", "error"))
	assert.Equal(t, float64(1), metrics.get("x", "handled"))
}

func TestBusPublishRespectsContext(t *testing.T) {
	bus, metrics := newTestBus(WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), testEvent("x")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, testEvent("x")), context.Canceled)
	assert.Equal(t, float64(1), metrics.get("x", "aborted"))
}

func TestBusDecorator(t *testing.T) {
	type key struct{}
	bus, _ := newTestBus(WithDecorator(func(ctx context.Context, e domoutbox.Event, _ trace.SpanContext) context.Context {
		return context.WithValue(ctx, key{}, e.EventName())
	}))
	got := make(chan any, 1)
	bus.Subscribe("y", func(ctx context.Context, _ domoutbox.Event) error {
		got <- ctx.Value(key{})
		return nil
	})
	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent("y")))
	bus.Stop(context.Background())

	assert.Equal(t, "y", <-got)
}
