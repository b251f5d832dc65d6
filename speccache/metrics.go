package speccache

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeHit           = "hit"
	outcomeMiss          = "miss"
	outcomeFailureReplay = "failure_replay"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the Prometheus collectors updated by a Cache. A nil *Metrics
// records nothing.
type Metrics struct {
	lookups     *prometheus.CounterVec
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the cache collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specweaver",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Document lookups by outcome (hit, miss, failure_replay).",
		}, []string{"document", "outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specweaver",
			Subsystem: "cache",
			Name:      "generations_total",
			Help:      "Document generations by result.",
		}, []string{"document", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "specweaver",
			Subsystem: "cache",
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating and rendering a document.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"document"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, collector := range []prometheus.Collector{m.lookups, m.generations, m.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("speccache: register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) lookup(document, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(document, outcome).Inc()
}

func (m *Metrics) generation(document, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(document, result).Inc()
	m.duration.WithLabelValues(document).Observe(elapsed.Seconds())
}
