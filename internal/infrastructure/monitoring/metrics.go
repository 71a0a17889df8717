package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing, so wiring stays optional.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Embedding metrics
	EmbedsTotal     prometheus.Counter
	EmbedErrors     *prometheus.CounterVec
	ReleasesTotal   prometheus.Counter
	SessionsCurrent prometheus.Gauge
	Invalidations   *prometheus.CounterVec

	// Focus metrics
	Activations prometheus.Counter

	// Repaint metrics
	Repaints prometheus.Counter

	// Launch metrics
	LaunchDuration prometheus.Histogram
	LaunchErrors   prometheus.Counter

	// Monitor metrics
	Sweeps prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSEvents      *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector registered on the default
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowhub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "windowhub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		EmbedsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowhub_embeds_total",
				Help: "Total number of windows embedded",
			},
		),
		EmbedErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowhub_embed_errors_total",
				Help: "Total number of failed embed attempts",
			},
			[]string{"reason"},
		),
		ReleasesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowhub_releases_total",
				Help: "Total number of windows released back to the desktop",
			},
		),
		SessionsCurrent: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "windowhub_sessions_current",
				Help: "Number of sessions currently embedded",
			},
		),
		Invalidations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowhub_invalidations_total",
				Help: "Total number of sessions dropped by external changes",
			},
			[]string{"reason"},
		),

		Activations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowhub_activations_total",
				Help: "Total number of session activations",
			},
		),

		Repaints: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowhub_repaints_total",
				Help: "Total number of forced repaint passes",
			},
		),

		LaunchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "windowhub_launch_capture_duration_seconds",
				Help:    "Time from process start to window capture",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		LaunchErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowhub_launch_errors_total",
				Help: "Total number of failed launch-and-capture attempts",
			},
		),

		Sweeps: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "windowhub_reconcile_sweeps_total",
				Help: "Total number of reconciliation sweeps",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "windowhub_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windowhub_ws_events_total",
				Help: "Total number of events pushed to WebSocket clients",
			},
			[]string{"type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "windowhub_uptime_seconds",
				Help: "Engine uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEmbed records a successful embed and the new session count.
func (m *Metrics) RecordEmbed(sessions int) {
	if m == nil {
		return
	}
	m.EmbedsTotal.Inc()
	m.SessionsCurrent.Set(float64(sessions))
}

// RecordEmbedError records a failed embed attempt by reason.
func (m *Metrics) RecordEmbedError(reason string) {
	if m == nil {
		return
	}
	m.EmbedErrors.WithLabelValues(reason).Inc()
}

// RecordRelease records a session removal and the new session count.
func (m *Metrics) RecordRelease(sessions int) {
	if m == nil {
		return
	}
	m.ReleasesTotal.Inc()
	m.SessionsCurrent.Set(float64(sessions))
}

// RecordInvalidation records an externally caused session drop.
func (m *Metrics) RecordInvalidation(reason string) {
	if m == nil {
		return
	}
	m.Invalidations.WithLabelValues(reason).Inc()
}

// RecordActivation records a session activation.
func (m *Metrics) RecordActivation() {
	if m == nil {
		return
	}
	m.Activations.Inc()
}

// RecordRepaint records a forced repaint pass.
func (m *Metrics) RecordRepaint() {
	if m == nil {
		return
	}
	m.Repaints.Inc()
}

// RecordLaunch records a launch-and-capture outcome.
func (m *Metrics) RecordLaunch(duration time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.LaunchErrors.Inc()
		return
	}
	m.LaunchDuration.Observe(duration.Seconds())
}

// RecordSweep records one reconciliation sweep.
func (m *Metrics) RecordSweep() {
	if m == nil {
		return
	}
	m.Sweeps.Inc()
}

// RecordWSEvent records an event pushed to WebSocket clients.
func (m *Metrics) RecordWSEvent(eventType string) {
	if m == nil {
		return
	}
	m.WSEvents.WithLabelValues(eventType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
