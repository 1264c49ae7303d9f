// Package observability assembles the tracer, logger and metric instruments
// of the checkout service behind the application Observability port.
package observability

import (
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// instrumentSet resolves registered instruments by key; unknown keys get no-ops
// so a use case never has to nil-check what it asked for.
type instrumentSet struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (s *instrumentSet) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := s.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (s *instrumentSet) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := s.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// New builds the Observability handed to every use case, worker and handler.
// Nil parts fall back to no-ops.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if len(counters) == 0 && len(histograms) == 0 {
		return &provider{tracer: tracer, logger: logger, metrics: observability.NopMetrics()}
	}

	set := &instrumentSet{
		counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
	}
	for k, c := range counters {
		if c != nil {
			set.counters[k] = c
		}
	}
	for k, h := range histograms {
		if h != nil {
			set.histograms[k] = h
		}
	}
	return &provider{tracer: tracer, logger: logger, metrics: set}
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
