package order

import (
	"context"
	"fmt"
	"time"

	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workerService = "notification-worker"
	notifyTimeout = 10 * time.Second
	spanPrefix    = "UC."
)

// Worker forwards placed orders to the notification sink. Delivery problems end
// here: they are logged and counted, never reported back to the buyer.
type Worker struct {
	subscriber domoutbox.Subscriber
	notifier   Notifier
	peer       string
	tracer     observability.Tracer

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// NewWorker wires a worker; peer names the sink transport in metrics.
func NewWorker(
	subscriber domoutbox.Subscriber,
	notifier Notifier,
	peer string,
	tel observability.Observability,
) *Worker {
	base := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		base = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}

	return &Worker{
		subscriber:   subscriber,
		notifier:     notifier,
		peer:         peer,
		tracer:       tracer,
		log:          base.With(observability.F("service", workerService)),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.notifier == nil {
		return
	}
	w.subscriber.Subscribe(domain.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(dominv.StockDepletedEvent{}.EventName(), w.handleStockDepleted)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	const useCase = "notification.order_placed"
	evt, ok := e.(domain.OrderPlacedEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	ctx, span := w.tracer.Start(ctx, spanPrefix+"NotifyOrderPlaced",
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
		attribute.Int64("order.id", evt.OrderID),
	)
	start := time.Now()
	outcome, status := "success", "OK"

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCase),
		observability.F("event", e.EventName()),
		observability.F("order_id", evt.OrderID),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx = logctx.With(ctx, logger)

	defer func() {
		lat := time.Since(start).Seconds()
		w.observe(useCase, outcome, lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		logger.Info("use_case_done", fields...)
		span.End()
	}()

	if evt.BuyerEmail == "" {
		status = "NO_RECIPIENT"
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	sendStart := time.Now()
	sendErr := w.notifier.NotifyOrderPlaced(sendCtx, evt.OrderID, evt.BuyerEmail)

	sendOutcome := "success"
	if sendErr != nil {
		sendOutcome = "error"
	}
	w.extCounter.Add(1,
		observability.L("peer", w.peer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", sendOutcome),
	)
	w.extHistogram.Observe(time.Since(sendStart).Seconds(),
		observability.L("peer", w.peer),
		observability.L("endpoint", e.EventName()),
	)

	if sendErr != nil {
		outcome, status = "error", "NOTIFY_FAILED"
		return fmt.Errorf("notify order %d: %w", evt.OrderID, sendErr)
	}
	return nil
}

// handleStockDepleted leaves a trail for sellers; the product is now sold.
func (w *Worker) handleStockDepleted(ctx context.Context, e domoutbox.Event) error {
	const useCase = "notification.stock_depleted"
	evt, ok := e.(dominv.StockDepletedEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}
	logctx.FromOr(ctx, w.log).Warn("stock_depleted",
		observability.F("product_id", evt.ProductID),
		observability.F("order_id", evt.OrderID),
	)
	w.count(useCase, "success")
	return nil
}

func (w *Worker) count(useCase, outcome string) {
	if w.reqCounter != nil {
		w.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
	}
}

func (w *Worker) observe(useCase string, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	if w.durHistogram != nil {
		w.durHistogram.Observe(latencySeconds,
			observability.L("use_case", useCase),
		)
	}
}
