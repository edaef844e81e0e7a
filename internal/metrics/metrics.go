// Package metrics exposes Prometheus counters/histograms for the
// catalog/adm/cbm operations, in the spirit of the teacher's
// PerformanceMetrics (per-operation timing, bucketed) but backed by
// github.com/prometheus/client_golang instead of an in-process struct, so
// the numbers can be scraped rather than only logged.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector this module registers. The zero value
// is not usable; use New.
type Metrics struct {
	reg *prometheus.Registry

	CatalogWalkDuration  prometheus.Histogram
	ADMGenerateDuration  prometheus.Histogram
	CBMMergeDuration     prometheus.Histogram
	CBMMergeConflicts    prometheus.Counter
	CBMNodeCount         prometheus.Gauge
}

// New registers a fresh set of collectors on a dedicated registry,
// returned alongside so callers can expose it over an HTTP handler.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		CatalogWalkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "arm_catalog_walk_seconds",
			Help: "Duration of one ARM catalog walk.",
		}),
		ADMGenerateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "adm_generate_seconds",
			Help: "Duration of one generate_adms call.",
		}),
		CBMMergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cbm_merge_adm_seconds",
			Help: "Duration of one merge_adm call.",
		}),
		CBMMergeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbm_merge_conflicts_total",
			Help: "Count of merge_adm calls rejected with ConflictingMerge.",
		}),
		CBMNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cbm_node_count",
			Help: "Current vertex count of the CBM graph.",
		}),
	}
	reg.MustRegister(
		m.CatalogWalkDuration,
		m.ADMGenerateDuration,
		m.CBMMergeDuration,
		m.CBMMergeConflicts,
		m.CBMNodeCount,
	)
	return m, reg
}

// Observe records the time elapsed since since against h, a small helper so call sites read as a
// single defer line: defer metrics.Observe(m.CBMMergeDuration, time.Now()).
func Observe(h prometheus.Histogram, since time.Time) {
	h.Observe(time.Since(since).Seconds())
}
