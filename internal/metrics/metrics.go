// Package metrics exposes Prometheus counters for the pollers.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "puzzlewatch"

// Metrics holds all poller metrics.
type Metrics struct {
	registry *prometheus.Registry

	Polls         *prometheus.CounterVec
	PollDuration  *prometheus.HistogramVec
	PollErrors    *prometheus.CounterVec
	Changes       *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	LastSuccess   *prometheus.GaugeVec
}

// New registers the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Polls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll iterations by poller and outcome",
		}, []string{"poller", "outcome"}),
		PollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of one poll iteration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"poller"}),
		PollErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Failed poll iterations by poller and error type",
		}, []string{"poller", "type"}),
		Changes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "New items detected by poller",
		}, []string{"poller"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by poller and status",
		}, []string{"poller", "status"}),
		LastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful poll",
		}, []string{"poller"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePoll records one finished iteration.
func (m *Metrics) ObservePoll(poller, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Polls.WithLabelValues(poller, outcome).Inc()
	m.PollDuration.WithLabelValues(poller).Observe(elapsed.Seconds())
	if outcome != "error" {
		m.LastSuccess.WithLabelValues(poller).SetToCurrentTime()
	}
}

// ObserveError records a failed iteration.
func (m *Metrics) ObserveError(poller, errType string) {
	if m == nil {
		return
	}
	m.PollErrors.WithLabelValues(poller, errType).Inc()
}

// ObserveChange records a detected new item.
func (m *Metrics) ObserveChange(poller string) {
	if m == nil {
		return
	}
	m.Changes.WithLabelValues(poller).Inc()
}

// ObserveNotification records a notification attempt.
func (m *Metrics) ObserveNotification(poller string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.Notifications.WithLabelValues(poller, status).Inc()
}
