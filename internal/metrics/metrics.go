// Package metrics exposes Prometheus metrics for the dashboard.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal *prometheus.CounterVec
	pullTotal  *prometheus.CounterVec

	gitCommandSeconds *prometheus.HistogramVec

	reposTotal  prometheus.Gauge
	reposBehind prometheus.Gauge
}

// New creates and registers all dashboard metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitdash",
			Name:      "fetch_total",
			Help:      "Completed git fetch operations by status.",
		}, []string{"status"}),
		pullTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitdash",
			Name:      "pull_total",
			Help:      "Completed git pull operations by status.",
		}, []string{"status"}),
		gitCommandSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gitdash",
			Name:      "git_command_seconds",
			Help:      "Duration of git subprocess invocations.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		}, []string{"command"}),
		reposTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gitdash",
			Name:      "repos",
			Help:      "Repositories discovered under the scan root.",
		}),
		reposBehind: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gitdash",
			Name:      "repos_behind",
			Help:      "Repositories currently behind their upstream.",
		}),
	}

	registry.MustRegister(
		m.fetchTotal,
		m.pullTotal,
		m.gitCommandSeconds,
		m.reposTotal,
		m.reposBehind,
	)

	return m
}

// ObserveGitCommand records one git subprocess duration. Matches the
// gitcli.Observer signature.
func (m *Metrics) ObserveGitCommand(command string, elapsed time.Duration) {
	m.gitCommandSeconds.WithLabelValues(command).Observe(elapsed.Seconds())
}

// FetchCompleted counts a finished fetch.
func (m *Metrics) FetchCompleted(ok bool) {
	m.fetchTotal.WithLabelValues(statusLabel(ok)).Inc()
}

// PullCompleted counts a finished pull.
func (m *Metrics) PullCompleted(ok bool) {
	m.pullTotal.WithLabelValues(statusLabel(ok)).Inc()
}

// SetRepoCounts updates the discovery gauges.
func (m *Metrics) SetRepoCounts(total, behind int) {
	m.reposTotal.Set(float64(total))
	m.reposBehind.Set(float64(behind))
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
