package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docuforge"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// Renders counts template renders by template type and outcome (ok|compile_error).
	Renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "renders_total", Help: "Number of template renders by type and outcome."},
		[]string{"type", "outcome"},
	)
	RenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "render_duration_seconds", Help: "Template render latency.", Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8)},
	)
	ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "validation_failures_total", Help: "Number of rejected form submissions by template id."},
		[]string{"template"},
	)
	DocumentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "document_operations_total", Help: "Number of document operations by kind and result."},
		[]string{"op", "result"},
	)
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "auth_events_total", Help: "Number of auth state changes by event."},
		[]string{"event"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Renders)
	reg.MustRegister(RenderDuration)
	reg.MustRegister(ValidationFailures)
	reg.MustRegister(DocumentOps)
	reg.MustRegister(AuthEvents)
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
