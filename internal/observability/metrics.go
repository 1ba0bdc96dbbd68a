package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "helpdesk"

// Metrics owns a private registry so tests can build as many instances as they need.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	durations       *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	fieldUpdates    *prometheus.CounterVec
	deletions       *prometheus.CounterVec
	liveSubscribers *prometheus.GaugeVec
	liveSnapshots   *prometheus.CounterVec
	watcherRestarts *prometheus.CounterVec
}

// NewMetrics registers the service collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled, labeled by route, method and status",
		}, []string{"route", "method", "status"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses, labeled by route, method and error code",
		}, []string{"route", "method", "code"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "submissions_total",
			Help:      "Ticket submissions, labeled by outcome",
		}, []string{"outcome"}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "attachment_uploads_total",
			Help:      "Attachment uploads, labeled by outcome (ok, failed, dropped, discarded)",
		}, []string{"outcome"}),
		fieldUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "field_updates_total",
			Help:      "Status and technician writes, labeled by field and outcome",
		}, []string{"field", "outcome"}),
		deletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "deletions_total",
			Help:      "Ticket deletions, labeled by outcome",
		}, []string{"outcome"}),
		liveSubscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "subscribers",
			Help:      "Connected observation view streams",
		}, []string{"view"}),
		liveSnapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "snapshots_total",
			Help:      "Full ticket snapshots received from the store",
		}, []string{"view"}),
		watcherRestarts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "watcher_restarts_total",
			Help:      "Store subscriptions restarted after a failure",
		}, []string{"view"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest counts a finished request and its latency.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordUploads(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.uploads.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) RecordFieldUpdate(field, outcome string) {
	if m == nil {
		return
	}
	m.fieldUpdates.WithLabelValues(field, outcome).Inc()
}

func (m *Metrics) RecordDeletion(outcome string) {
	if m == nil {
		return
	}
	m.deletions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LiveSubscriberAdded(view string) {
	if m == nil {
		return
	}
	m.liveSubscribers.WithLabelValues(view).Inc()
}

func (m *Metrics) LiveSubscriberRemoved(view string) {
	if m == nil {
		return
	}
	m.liveSubscribers.WithLabelValues(view).Dec()
}

func (m *Metrics) RecordSnapshot(view string) {
	if m == nil {
		return
	}
	m.liveSnapshots.WithLabelValues(view).Inc()
}

func (m *Metrics) RecordWatcherRestart(view string) {
	if m == nil {
		return
	}
	m.watcherRestarts.WithLabelValues(view).Inc()
}
