package outbox

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"

	"go.opentelemetry.io/otel/trace"
)

const (
	componentOutbox = "outbox"
	handlerTimeout  = 30 * time.Second
)

var _ domoutbox.Broker = (*Bus)(nil)

// Decorator prepares the context a handler runs with, typically binding a logger.
type Decorator func(ctx context.Context, e domoutbox.Event, sc trace.SpanContext) context.Context

// Bus is an in-memory event bus that fans events out to subscribers after the
// publishing unit of work has committed. It is not durable: events queued when
// the process stops are lost.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string][]domoutbox.Handler
	queue       chan envelope
	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc
	done        chan struct{}
	concurrency int
	decorate    Decorator
	log         observability.Logger
	events      observability.Counter // outbox_events_total{event,outcome}
}

// envelope keeps the publisher's span so handler spans join the same trace.
type envelope struct {
	event domoutbox.Event
	span  trace.SpanContext
}

type Option func(*Bus)

// WithDecorator replaces the default handler context preparation.
func WithDecorator(d Decorator) Option {
	return func(b *Bus) { b.decorate = d }
}

// WithQueueSize sets the number of events buffered before Publish blocks.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan envelope, n)
		}
	}
}

// WithConcurrency caps the handlers run in parallel for one event.
func WithConcurrency(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func NewBus(tel observability.Observability, opts ...Option) *Bus {
	base := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		base = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	b := &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan envelope, 1024),
		done:        make(chan struct{}),
		concurrency: 8,
		log:         base.With(observability.F("component", componentOutbox)),
		events:      metricsProvider.Counter(observability.MOutboxEvents),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.decorate == nil {
		b.decorate = b.defaultDecorate
	}
	return b
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop drains events already queued, then stops dispatching. Publish must not
// be called after Stop.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.queue)
		if b.cancel != nil {
			select {
			case <-b.done:
			case <-ctx.Done():
				logctx.FromOr(ctx, b.log).Warn("event_bus_drain_aborted",
					observability.F("pending", len(b.queue)),
				)
			}
			b.cancel()
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	env := envelope{event: e, span: trace.SpanContextFromContext(ctx)}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))
	select {
	case b.queue <- env:
		b.count(e.EventName(), "enqueued")
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		b.count(e.EventName(), "aborted")
		logger.Warn("event_enqueue_aborted",
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-b.queue:
			if !ok {
				return
			}
			b.fanout(ctx, env)
		}
	}
}

func (b *Bus) fanout(ctx context.Context, env envelope) {
	name := env.event.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.count(name, "dropped")
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	ctx = b.decorate(context.WithoutCancel(ctx), env.event, env.span)
	logger := logctx.FromOr(ctx, b.log)

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.count(name, "panic")
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			err := h(hctx, env.event)
			cancel()
			if err != nil {
				b.count(name, "error")
				logger.Warn("event_handler_error",
					observability.F("error", err),
				)
				return
			}
			b.count(name, "handled")
		}()
	}

	wg.Wait()

	logger.Debug("event_fanned_out",
		observability.F("handlers", len(handlers)),
	)
}

func (b *Bus) defaultDecorate(ctx context.Context, e domoutbox.Event, sc trace.SpanContext) context.Context {
	if sc.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, sc)
	}
	return logctx.With(ctx, b.log.With(observability.F("event", e.EventName())))
}

func (b *Bus) count(event, outcome string) {
	b.events.Add(1,
		observability.L("event", event),
		observability.L("outcome", outcome),
	)
}
