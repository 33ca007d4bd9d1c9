package score

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts editing and layout activity. A nil *Metrics records nothing.
type Metrics struct {
	// edits counts cursor operations by operation and result
	edits *prometheus.CounterVec

	// layoutPasses counts completed layout passes by driver and result
	layoutPasses *prometheus.CounterVec

	// layoutChunks counts measured chunks placed into rows
	layoutChunks prometheus.Counter

	// layoutDuration tracks how long a whole pass takes, oracle time included
	layoutDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		edits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "score_cursor_operations_total",
			Help: "Cursor operations by operation and result",
		}, []string{"operation", "result"}),
		layoutPasses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "score_layout_passes_total",
			Help: "Layout passes by driver and result",
		}, []string{"driver", "result"}),
		layoutChunks: f.NewCounter(prometheus.CounterOpts{
			Name: "score_layout_chunks_total",
			Help: "Measured chunks placed into rows",
		}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "score_layout_duration_seconds",
			Help:    "Layout pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		}, []string{"driver"}),
	}
}

func (m *Metrics) operation(op string, applied bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "noop"
	}
	m.edits.WithLabelValues(op, result).Inc()
}

func (m *Metrics) chunk() {
	if m == nil {
		return
	}
	m.layoutChunks.Inc()
}

func (m *Metrics) pass(driver string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.layoutPasses.WithLabelValues(driver, result).Inc()
	m.layoutDuration.WithLabelValues(driver).Observe(time.Since(started).Seconds())
}
