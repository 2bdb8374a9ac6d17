package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cyclone_monitor"

// Metrics holds the Prometheus counters, histograms, and gauges for the monitor.
type Metrics struct {
	TicksTotal    prometheus.Counter
	PublishErrors *prometheus.CounterVec // labels: publisher={kafka,websocket,...}
	PublishDrops  *prometheus.CounterVec // labels: publisher
	MonitorState  prometheus.Gauge       // 0 disconnected, 1 connecting, 2 connected
	TickDuration  prometheus.Histogram
	HistoryLength prometheus.Gauge

	// Risk metrics.
	OutageRisk   prometheus.Gauge
	RiskLevels   *prometheus.CounterVec // labels: level={Low,Medium,High,Critical}
	ReadingValue *prometheus.GaugeVec   // labels: parameter={windSpeed,precipitation,...}
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TicksTotal,
		m.PublishErrors,
		m.PublishDrops,
		m.MonitorState,
		m.TickDuration,
		m.HistoryLength,
		m.OutageRisk,
		m.RiskLevels,
		m.ReadingValue,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total update cycles processed.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Updates a publisher failed to deliver.",
		}, []string{"publisher"}),
		PublishDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_dropped_total",
			Help:      "Updates discarded because a publisher fell behind.",
		}, []string{"publisher"}),
		MonitorState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_state",
			Help:      "Controller state: 0 disconnected, 1 connecting, 2 connected.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a generate-evaluate-append-publish cycle.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		HistoryLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_length",
			Help:      "Entries currently held in the rolling history window.",
		}),
		OutageRisk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outage_risk_score",
			Help:      "Latest outage risk score in [0,1].",
		}),
		RiskLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_level_total",
			Help:      "Ticks per assessed risk level.",
		}, []string{"level"}),
		ReadingValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading_value",
			Help:      "Latest simulated value per reading parameter.",
		}, []string{"parameter"}),
	}
}
