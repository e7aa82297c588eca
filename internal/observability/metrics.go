// Package observability exposes the agent's operational state as
// Prometheus metrics, served alongside a plain health endpoint.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every gauge/counter the agent publishes.
type Metrics struct {
	CPUTenthsSpent       prometheus.Gauge
	RequestsRemaining    prometheus.Gauge
	QueueDepth           *prometheus.GaugeVec
	PrpBasesCheckedTotal prometheus.Counter
	UTasksAssignedTotal  prometheus.Counter
	DuplicateTasksTotal  prometheus.Counter

	registry *prometheus.Registry
	logger   *slog.Logger
}

// NewMetrics builds a Metrics instance registered against a dedicated
// registry (not the global default, so repeated construction in tests
// never panics on duplicate registration).
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		CPUTenthsSpent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "primewatch_cpu_tenths_spent",
			Help: "Last CPU-tenths-spent figure reported by the service's status page.",
		}),
		RequestsRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Name: "primewatch_requests_remaining",
			Help: "Requests remaining in the current hourly quota window.",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "primewatch_queue_depth",
			Help: "Current depth of the main/retry task queues.",
		}, []string{"queue"}),
		PrpBasesCheckedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "primewatch_prp_bases_checked_total",
			Help: "Total PRP per-base checks performed.",
		}),
		UTasksAssignedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "primewatch_u_tasks_assigned_total",
			Help: "Total unknown-status numbers assigned to this worker.",
		}),
		DuplicateTasksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "primewatch_duplicate_tasks_total",
			Help: "Total tasks dropped as duplicates by the dedup filter.",
		}),
		registry: reg,
		logger:   logger.With("component", "metrics"),
	}
}

// StartServer starts the metrics+health HTTP server in a background goroutine.
func (m *Metrics) StartServer(addr, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	m.logger.Info("metrics server starting", "addr", addr, "path", path)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}
