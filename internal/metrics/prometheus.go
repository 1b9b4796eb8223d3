package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exposes metrics for Prometheus scraping. Each
// instance carries its own registry so tests can construct recorders
// without collector name collisions.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	usersRegistered prometheus.Counter
	logins          *prometheus.CounterVec
	tokensRevoked   prometheus.Counter

	projectOps   *prometheus.CounterVec
	projectCache *prometheus.CounterVec

	documentOps *prometheus.CounterVec
	uploadSize  prometheus.Histogram

	activityEvents  *prometheus.CounterVec
	activityFlushes *prometheus.CounterVec
	activityBatch   prometheus.Histogram
	activityFlush   prometheus.Histogram
}

// NewPrometheus builds a PrometheusRecorder with all collectors registered.
func NewPrometheus() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projectdesk",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "projectdesk",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "route"},
		),

		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "projectdesk",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Total number of registered users.",
		}),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projectdesk",
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Total number of login attempts by outcome.",
			},
			[]string{"outcome"},
		),
		tokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "projectdesk",
			Subsystem: "auth",
			Name:      "tokens_revoked_total",
			Help:      "Total number of tokens revoked via logout.",
		}),

		projectOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projectdesk",
				Subsystem: "projects",
				Name:      "operations_total",
				Help:      "Total number of project mutations by operation.",
			},
			[]string{"operation"},
		),
		projectCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projectdesk",
				Subsystem: "projects",
				Name:      "cache_requests_total",
				Help:      "Project cache lookups by result.",
			},
			[]string{"result"},
		),

		documentOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projectdesk",
				Subsystem: "documents",
				Name:      "operations_total",
				Help:      "Total number of document mutations by operation.",
			},
			[]string{"operation"},
		),
		uploadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "projectdesk",
			Subsystem: "documents",
			Name:      "upload_size_bytes",
			Help:      "Size of uploaded documents.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to ~16MiB
		}),

		activityEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projectdesk",
				Subsystem: "activity",
				Name:      "events_total",
				Help:      "Activity events by enqueue status.",
			},
			[]string{"status"},
		),
		activityFlushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "projectdesk",
				Subsystem: "activity",
				Name:      "flushes_total",
				Help:      "Activity batch flushes by status.",
			},
			[]string{"status"},
		),
		activityBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "projectdesk",
			Subsystem: "activity",
			Name:      "batch_size_events",
			Help:      "Events per flushed activity batch.",
			Buckets:   prometheus.LinearBuckets(1, 8, 8),
		}),
		activityFlush: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "projectdesk",
			Subsystem: "activity",
			Name:      "flush_duration_seconds",
			Help:      "Duration of activity batch flushes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
	}

	r.registry.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.usersRegistered,
		r.logins,
		r.tokensRevoked,
		r.projectOps,
		r.projectCache,
		r.documentOps,
		r.uploadSize,
		r.activityEvents,
		r.activityFlushes,
		r.activityBatch,
		r.activityFlush,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)

	return r
}

// Handler returns an HTTP handler exposing the registered collectors.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncUserRegistered increments the registration counter.
func (p *PrometheusRecorder) IncUserRegistered() {
	p.usersRegistered.Inc()
}

// IncLogin increments the login counter for the given outcome.
func (p *PrometheusRecorder) IncLogin(outcome string) {
	p.logins.WithLabelValues(outcome).Inc()
}

// IncTokenRevoked increments the logout counter.
func (p *PrometheusRecorder) IncTokenRevoked() {
	p.tokensRevoked.Inc()
}

// IncProjectCreated increments the project created counter.
func (p *PrometheusRecorder) IncProjectCreated() {
	p.projectOps.WithLabelValues("create").Inc()
}

// IncProjectUpdated increments the project updated counter.
func (p *PrometheusRecorder) IncProjectUpdated() {
	p.projectOps.WithLabelValues("update").Inc()
}

// IncProjectDeleted increments the project deleted counter.
func (p *PrometheusRecorder) IncProjectDeleted() {
	p.projectOps.WithLabelValues("delete").Inc()
}

// IncParticipantAdded increments the participant added counter.
func (p *PrometheusRecorder) IncParticipantAdded() {
	p.projectOps.WithLabelValues("participant_add").Inc()
}

// IncParticipantRemoved increments the participant removed counter.
func (p *PrometheusRecorder) IncParticipantRemoved() {
	p.projectOps.WithLabelValues("participant_remove").Inc()
}

// IncProjectCacheHit increments the cache hit counter.
func (p *PrometheusRecorder) IncProjectCacheHit() {
	p.projectCache.WithLabelValues("hit").Inc()
}

// IncProjectCacheMiss increments the cache miss counter.
func (p *PrometheusRecorder) IncProjectCacheMiss() {
	p.projectCache.WithLabelValues("miss").Inc()
}

// IncDocumentUploaded increments the upload counter.
func (p *PrometheusRecorder) IncDocumentUploaded() {
	p.documentOps.WithLabelValues("upload").Inc()
}

// IncDocumentDeleted increments the document deleted counter.
func (p *PrometheusRecorder) IncDocumentDeleted() {
	p.documentOps.WithLabelValues("delete").Inc()
}

// ObserveUploadSize records the size of an uploaded document.
func (p *PrometheusRecorder) ObserveUploadSize(bytes int64) {
	p.uploadSize.Observe(float64(bytes))
}

// IncActivityEventRecorded counts queued or dropped activity events.
func (p *PrometheusRecorder) IncActivityEventRecorded(status string) {
	p.activityEvents.WithLabelValues(status).Inc()
}

// IncActivityFlush counts flush attempts by status.
func (p *PrometheusRecorder) IncActivityFlush(status string) {
	p.activityFlushes.WithLabelValues(status).Inc()
}

// ObserveActivityBatchSize records events per flushed batch.
func (p *PrometheusRecorder) ObserveActivityBatchSize(size int) {
	p.activityBatch.Observe(float64(size))
}

// ObserveActivityFlushDuration records flush duration.
func (p *PrometheusRecorder) ObserveActivityFlushDuration(duration time.Duration) {
	p.activityFlush.Observe(duration.Seconds())
}
