package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors on a private registry, so
// several servers can coexist in one process.
type Metrics struct {
	reg *prometheus.Registry

	connections prometheus.Counter
	requests    *prometheus.CounterVec
	parseErrors *prometheus.CounterVec
	sendErrors  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		connections: f.NewCounter(prometheus.CounterOpts{
			Name: "dictkv_connections_total",
			Help: "Accepted client connections",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dictkv_requests_total",
			Help: "Executed requests by operation and outcome",
		}, []string{"op", "outcome"}),
		parseErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dictkv_parse_errors_total",
			Help: "Frames rejected by the parser, by wire code",
		}, []string{"code"}),
		sendErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "dictkv_send_errors_total",
			Help: "Reply writes that failed",
		}),
	}
}

// Registry exposes the underlying registry for a promhttp handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) RecordConnection() {
	m.connections.Inc()
}

func (m *Metrics) RecordRequest(op, outcome string) {
	m.requests.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) RecordParseError(code string) {
	m.parseErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordSendError() {
	m.sendErrors.Inc()
}
