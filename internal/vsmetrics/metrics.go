// Copyright 2014-2026 the variableserver authors.

// Package vsmetrics instruments the variable server with Prometheus
// metrics: gauges for live session/thread counts, counters for frames sent
// and errors encountered. Grounded in the prometheus/client_golang usage
// elsewhere in the example pack (runZeroInc-conniver's TCP info exporter),
// adapted from a custom Collector to the more common promauto registration
// style since our metrics are plain counters/gauges, not kernel structs.
package vsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric the variable server exposes on /metrics.
type Registry struct {
	ActiveSessions    prometheus.Gauge
	ConnectedThreads  prometheus.Gauge
	FramesSentAscii   prometheus.Counter
	FramesSentBinary  prometheus.Counter
	ParseErrors       prometheus.Counter
	ConnectionResets  prometheus.Counter
}

// New registers a fresh Registry against reg. Pass prometheus.NewRegistry()
// for an isolated registry (tests) or nil to use the default global
// registry (the running daemon).
func New(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Registry{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "variableserver",
			Name:      "active_sessions",
			Help:      "Number of currently registered variable server sessions.",
		}),
		ConnectedThreads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "variableserver",
			Name:      "connected_threads",
			Help:      "Number of worker threads with a live client connection.",
		}),
		FramesSentAscii: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "variableserver",
			Name:      "frames_sent_ascii_total",
			Help:      "Total ASCII value frames written to clients.",
		}),
		FramesSentBinary: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "variableserver",
			Name:      "frames_sent_binary_total",
			Help:      "Total binary value frames written to clients.",
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "variableserver",
			Name:      "parse_errors_total",
			Help:      "Total malformed commands rejected with a diagnostic frame.",
		}),
		ConnectionResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "variableserver",
			Name:      "connection_resets_total",
			Help:      "Total client connections that terminated abnormally.",
		}),
	}
}
