package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics carries the recording counters on a private registry. They back the
// live status log line and double as a machine-readable view of the session
// diagnostics.
type Metrics struct {
	registry           *prometheus.Registry
	ActiveRecording    prometheus.Gauge
	StepsTotal         prometheus.Counter
	EventsTotal        *prometheus.CounterVec
	DroppedTotal       *prometheus.CounterVec
	ScreenshotFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveRecording: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "testcase_recorder",
			Name:      "active_recording",
			Help:      "1 while a session is recording",
		}),
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "testcase_recorder",
			Name:      "steps_total",
			Help:      "Total steps assembled",
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "testcase_recorder",
			Name:      "events_total",
			Help:      "Total events received by stream",
		}, []string{"stream"}),
		DroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "testcase_recorder",
			Name:      "dropped_events_total",
			Help:      "Total events dropped by reason",
		}, []string{"reason"}),
		ScreenshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "testcase_recorder",
			Name:      "screenshot_failures_total",
			Help:      "Total failed screenshot captures",
		}),
	}
	r.MustRegister(m.ActiveRecording, m.StepsTotal, m.EventsTotal, m.DroppedTotal, m.ScreenshotFailures)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
