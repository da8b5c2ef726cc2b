package console

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes
const (
	loadApplied = "applied"
	loadStale   = "stale"
	loadFailed  = "failed"
)

// Metrics instruments the engine. A nil *Metrics records nothing.
type Metrics struct {
	loads         *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	mutations     *prometheus.CounterVec
	products      prometheus.Gauge
	notifications *prometheus.CounterVec
	debounced     prometheus.Counter
}

// NewMetrics creates the console_* metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_loads_total",
				Help: "Product loads by outcome (applied, stale, failed)",
			},
			[]string{"result"},
		),
		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "console_load_duration_seconds",
				Help:    "Duration of product list calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_mutations_total",
				Help: "Product mutations by operation and outcome",
			},
			[]string{"op", "result"},
		),
		products: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_products",
				Help: "Number of products currently held by the store",
			},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_notifications_total",
				Help: "Notifications sent by severity",
			},
			[]string{"severity"},
		),
		debounced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_debounced_changes_total",
				Help: "Query changes superseded before their debounce window elapsed",
			},
		),
	}

	reg.MustRegister(m.loads, m.loadDuration, m.mutations, m.products, m.notifications, m.debounced)
	return m
}

func (m *Metrics) observeLoad(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
	if result != loadStale {
		m.loadDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) observeMutation(op string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) setProducts(n int) {
	if m == nil {
		return
	}
	m.products.Set(float64(n))
}

func (m *Metrics) observeNotification(severity Severity) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(severity)).Inc()
}

func (m *Metrics) observeDebounced() {
	if m == nil {
		return
	}
	m.debounced.Inc()
}
