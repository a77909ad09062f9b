// Package metrics contains the Prometheus collectors of the session layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the prefix of all metric names.
const Namespace = "remotecodec"

// Metrics records session and command statistics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	sessionsActive  *prometheus.GaugeVec
	sessionsOpened  *prometheus.CounterVec
	sessionsReaped  prometheus.Counter
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Use prometheus.DefaultRegisterer
// for the process wide registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sessionsActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of open sessions",
		}, []string{"kind"}),

		sessionsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sessions",
			Name:      "opened_total",
			Help:      "Total number of opened sessions",
		}, []string{"kind"}),

		sessionsReaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sessions",
			Name:      "reaped_total",
			Help:      "Total number of sessions closed after being idle",
		}),

		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "commands",
			Name:      "total",
			Help:      "Total number of dispatched commands by result",
		}, []string{"kind", "command", "result"}),

		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "Processing time of dispatched commands",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"kind", "command"}),
	}
}

// SessionOpened records a new session of kind.
func (m *Metrics) SessionOpened(kind string) {
	if m == nil {
		return
	}
	m.sessionsOpened.WithLabelValues(kind).Inc()
	m.sessionsActive.WithLabelValues(kind).Inc()
}

// SessionClosed records the end of a session of kind.
func (m *Metrics) SessionClosed(kind string) {
	if m == nil {
		return
	}
	m.sessionsActive.WithLabelValues(kind).Dec()
}

// SessionReaped records a session closed by the idle reaper.
func (m *Metrics) SessionReaped() {
	if m == nil {
		return
	}
	m.sessionsReaped.Inc()
}

// Command records a dispatched command with its result code.
func (m *Metrics) Command(kind, command, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind, command, result).Inc()
	m.commandDuration.WithLabelValues(kind, command).Observe(d.Seconds())
}
