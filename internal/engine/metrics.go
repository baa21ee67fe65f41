package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prune reasons recorded by Metrics.Pruned.
const (
	pruneBound       = "bound"
	pruneFalse       = "false"
	pruneLength      = "length"
	pruneMethodCount = "method_count"
	pruneRejected    = "rejected"
)

// Metrics holds the search counters. A nil registerer keeps them private
// to the engine, which still updates them.
type Metrics struct {
	Expanded     prometheus.Counter
	Pruned       *prometheus.CounterVec
	Compositions prometheus.Counter
	Frontier     prometheus.Gauge
	Duration     prometheus.Histogram
}

// NewMetrics creates the search metrics and registers them on reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Expanded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ringer",
			Subsystem: "search",
			Name:      "nodes_expanded_total",
			Help:      "Search nodes taken from the frontier and expanded.",
		}),
		Pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ringer",
			Subsystem: "search",
			Name:      "nodes_pruned_total",
			Help:      "Search nodes discarded, by reason.",
		}, []string{"reason"}),
		Compositions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ringer",
			Subsystem: "search",
			Name:      "compositions_total",
			Help:      "Compositions that passed every check, kept or not.",
		}),
		Frontier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ringer",
			Subsystem: "search",
			Name:      "frontier_nodes",
			Help:      "Nodes waiting in the frontier.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ringer",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of completed searches.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Expanded, m.Pruned, m.Compositions, m.Frontier, m.Duration)
	}
	return m
}
