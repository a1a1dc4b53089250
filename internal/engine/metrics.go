package engine

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records dispatch counts and latency. A nil *Metrics is a no-op.
type Metrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics registers dispatch metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookledger",
			Name:      "dispatch_total",
			Help:      "Contract calls by contract, function and envelope status.",
		}, []string{"contract", "function", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookledger",
			Name:      "dispatch_duration_seconds",
			Help:      "Contract call latency including the ledger transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"contract"}),
	}
	reg.MustRegister(m.calls, m.latency)
	return m
}

func (m *Metrics) observe(contract, function string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(contract, function, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(contract).Observe(elapsed.Seconds())
}
