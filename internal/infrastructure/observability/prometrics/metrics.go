package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry exposes the subset of Prometheus registry functionality needed by the application.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	namespace  string
	subsystem  string
	reg        prometheus.Registerer
}

// New registers collectors with reg, or with the default registerer when reg is nil.
func New(namespace, subsystem string, reg prometheus.Registerer) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		namespace:  namespace,
		subsystem:  subsystem,
		reg:        reg,
	}
}

// requestBuckets cover in-process use cases and single-row SQL round trips.
var requestBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

type counterSpec struct {
	key    observability.MetricKey
	help   string
	labels []string
}

type histogramSpec struct {
	key     observability.MetricKey
	help    string
	buckets []float64
	labels  []string
}

var counterSpecs = []counterSpec{
	{observability.MUsecaseRequests, "Use case invocations by outcome.", []string{"use_case", "outcome"}},
	{observability.MHTTPRequests, "HTTP requests by route and status.", []string{"method", "route", "status"}},
	{observability.MExternalRequests, "Calls to external peers by outcome.", []string{"peer", "endpoint", "outcome"}},
	{observability.MCartLinesClamped, "Cart lines lowered to the remaining stock on read.", nil},
	{observability.MOutboxEvents, "Outbox events by name and outcome.", []string{"event", "outcome"}},
}

var histogramSpecs = []histogramSpec{
	{observability.MUsecaseDuration, "Use case latency.", requestBuckets, []string{"use_case"}},
	{observability.MHTTPRequestDuration, "HTTP request latency.", requestBuckets, []string{"method", "route", "status"}},
	{observability.MExternalRequestDuration, "External call latency.", prometheus.DefBuckets, []string{"peer", "endpoint"}},
}

// Instruments registers every metric the checkout service emits.
func Instruments(r Registry) (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := make(map[observability.MetricKey]observability.Counter, len(counterSpecs))
	for _, s := range counterSpecs {
		counters[s.key] = r.Counter(string(s.key), s.help, s.labels...)
	}
	histograms := make(map[observability.MetricKey]observability.Histogram, len(histogramSpecs))
	for _, s := range histogramSpecs {
		histograms[s.key] = r.Histogram(string(s.key), s.help, s.buckets, s.labels...)
	}
	return counters, histograms
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

// Bind resolves the child series once so hot paths skip the label lookup.
func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return c.v.With(labelMap(labels))
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return h.v.With(labelMap(labels))
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cv, ok := r.counters[name]; ok {
		return &counter{v: cv}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	r.reg.MustRegister(cv)
	r.counters[name] = cv
	return &counter{v: cv}
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hv, ok := r.histograms[name]; ok {
		return &histogram{v: hv}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.reg.MustRegister(hv)
	r.histograms[name] = hv
	return &histogram{v: hv}
}
