package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

// Instruments carries the telemetry a use case records on every invocation.
type Instruments struct {
	log        observability.Logger
	tracer     observability.Tracer
	reqCounter observability.Counter   // usecase_requests_total{use_case,outcome}
	durHist    observability.Histogram // usecase_duration_seconds{use_case}
	metrics    observability.Metrics
}

// NewInstruments resolves instruments from tel, falling back to no-ops.
func NewInstruments(tel observability.Observability, service string) Instruments {
	baseLog := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}
	return Instruments{
		log:        baseLog.With(observability.F("service", service)),
		tracer:     tracer,
		reqCounter: metricsProvider.Counter(observability.MUsecaseRequests),
		durHist:    metricsProvider.Histogram(observability.MUsecaseDuration),
		metrics:    metricsProvider,
	}
}

func (in Instruments) Logger() observability.Logger   { return in.log }
func (in Instruments) Metrics() observability.Metrics { return in.metrics }

// Invocation tracks one use case execution from start to the use_case_done log line.
type Invocation struct {
	in         Instruments
	useCase    string
	ctx        context.Context
	span       trace.Span
	start      time.Time
	logger     observability.Logger
	outcome    string
	statusText string
	fields     []observability.Field
}

// Begin opens the span and binds the request logger. Call End in a defer.
func (in Instruments) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Invocation) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	inv := &Invocation{
		in:         in,
		useCase:    useCase,
		ctx:        ctx,
		span:       span,
		start:      time.Now(),
		logger:     logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase)),
		outcome:    "success",
		statusText: "OK",
	}
	return ctx, inv
}

func (inv *Invocation) Logger() observability.Logger { return inv.logger }
func (inv *Invocation) Span() trace.Span             { return inv.span }

// Fail records a failure status code and returns err unchanged.
func (inv *Invocation) Fail(statusText string, err error) error {
	inv.outcome, inv.statusText = "error", statusText
	return err
}

// Status overrides the status text of a successful invocation.
func (inv *Invocation) Status(statusText string) {
	inv.statusText = statusText
}

// With adds fields to the final log line.
func (inv *Invocation) With(fields ...observability.Field) {
	inv.fields = append(inv.fields, fields...)
}

// End closes the span, records RED metrics and writes use_case_done.
func (inv *Invocation) End(err error) {
	lat := time.Since(inv.start).Seconds()
	if err != nil && inv.outcome == "success" {
		inv.outcome, inv.statusText = "error", "FAILED"
	}

	if inv.span != nil {
		if err != nil {
			inv.span.RecordError(err)
			inv.span.SetStatus(codes.Error, inv.statusText)
		} else {
			inv.span.SetStatus(codes.Ok, inv.statusText)
		}
		inv.span.End()
	}

	if inv.in.reqCounter != nil {
		inv.in.reqCounter.Add(1,
			observability.L("use_case", inv.useCase),
			observability.L("outcome", inv.outcome),
		)
	}
	if inv.in.durHist != nil {
		inv.in.durHist.Observe(lat,
			observability.L("use_case", inv.useCase),
		)
	}

	fields := []observability.Field{
		observability.F("outcome", inv.outcome),
		observability.F("status", inv.statusText),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(inv.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, inv.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	inv.logger.Info("use_case_done", fields...)
}
