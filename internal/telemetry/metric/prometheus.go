// Package metric provides Prometheus metrics for meshkv.
//
// A Registry owns its own prometheus.Registry so tests and embedded
// servers do not collide on the global default one. Metrics cover:
//
//   - commands by name and result, with latency histograms
//   - client connections (open, accepted, rejected)
//   - protocol errors by reason
//   - bytes read from and written to clients
//   - keys per keyspace, through KeyspaceCollector
//
// Metrics are exposed at /metrics by the admin HTTP server.
package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meshkv"

// Command results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	ConnectionsOpen     prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec

	ProtocolErrors *prometheus.CounterVec
	RateLimited    prometheus.Counter

	BytesRead    prometheus.Counter
	BytesWritten prometheus.Counter
}

// NewRegistry creates a registry with every meshkv metric plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands processed, by command name and result.",
		}, []string{"command", "result"}),

		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency.",
			Buckets:   []float64{.000005, .00001, .000025, .00005, .0001, .00025, .0005, .001, .0025, .01},
		}, []string{"command"}),

		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_open",
			Help:      "Client connections currently open.",
		}),

		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Client connections accepted.",
		}),

		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Client connections refused, by reason.",
		}, []string{"reason"}),

		ProtocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections closed because of malformed RESP input, by reason.",
		}, []string{"reason"}),

		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Commands rejected by the per-connection rate limit.",
		}),

		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_bytes_total",
			Help:      "Bytes read from clients.",
		}),

		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Bytes written to clients.",
		}),
	}

	r.registry.MustRegister(
		r.CommandsTotal,
		r.CommandDuration,
		r.ConnectionsOpen,
		r.ConnectionsAccepted,
		r.ConnectionsRejected,
		r.ProtocolErrors,
		r.RateLimited,
		r.BytesRead,
		r.BytesWritten,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// MustRegister adds extra collectors, such as a KeyspaceCollector.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// RecordCommand counts one command and observes its latency.
func (r *Registry) RecordCommand(name, result string, d time.Duration) {
	r.CommandsTotal.WithLabelValues(name, result).Inc()
	r.CommandDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	r.ConnectionsAccepted.Inc()
	r.ConnectionsOpen.Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed() {
	r.ConnectionsOpen.Dec()
}

// ConnRejected records a refused connection.
func (r *Registry) ConnRejected(reason string) {
	r.ConnectionsRejected.WithLabelValues(reason).Inc()
}

// RecordProtocolError counts a connection dropped for malformed input.
func (r *Registry) RecordProtocolError(reason string) {
	r.ProtocolErrors.WithLabelValues(reason).Inc()
}

// AddBytesRead adds n to the bytes read counter.
func (r *Registry) AddBytesRead(n int) {
	if n > 0 {
		r.BytesRead.Add(float64(n))
	}
}

// AddBytesWritten adds n to the bytes written counter.
func (r *Registry) AddBytesWritten(n int) {
	if n > 0 {
		r.BytesWritten.Add(float64(n))
	}
}
