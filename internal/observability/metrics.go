package observability

// MetricKey names an instrument registered at startup.
type MetricKey string

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	// MCartLinesClamped counts cart lines lowered to the remaining stock on read.
	MCartLinesClamped MetricKey = "cart_lines_clamped_total"
	// MOutboxEvents counts bus events by name and outcome.
	MOutboxEvents MetricKey = "outbox_events_total"
)

// Label is a metric label. Values must stay low-cardinality: no ids, no emails.
type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

// Metrics resolves instruments by key; unknown keys yield no-ops.
type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

type Counter interface {
	Add(delta float64, labels ...Label)
	// Bind fixes the labels once for hot paths.
	Bind(labels ...Label) BoundCounter
}

type BoundCounter interface {
	Add(delta float64)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
	Bind(labels ...Label) BoundHistogram
}

type BoundHistogram interface {
	Observe(value float64)
}
