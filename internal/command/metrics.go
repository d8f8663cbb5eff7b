package command

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	outcomeRead  = "read"
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics counts and times dispatched commands.
type Metrics struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	queueDepth      prometheus.Gauge
}

// NewMetrics registers the dispatcher collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ost_commands_total",
				Help: "Total number of dispatched commands by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ost_command_duration_seconds",
				Help:    "Time spent executing a command against the context",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ost_command_queue_depth",
				Help: "Commands waiting in the dispatcher queue",
			},
		),
	}
	for _, collector := range []prometheus.Collector{metrics.commandsTotal, metrics.commandDuration, metrics.queueDepth} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("command: register metrics: %w", err)
		}
	}
	return metrics, nil
}

func (m *Metrics) observe(name, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(name, outcome).Inc()
	m.commandDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) setQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
