// Package metrics holds the engine's Prometheus collectors.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tripmate"

// Metrics groups every collector the engine updates. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	SwipesTotal       *prometheus.CounterVec
	MatchesTotal      prometheus.Counter
	DiscoverDuration  prometheus.Histogram
	DiscoverResults   prometheus.Histogram
	UnseenCacheTotal  *prometheus.CounterVec
	IndexUpdatesTotal *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// to keep them isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// labels: direction (like|pass|super_like), created (true|false)
		SwipesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swipes_total",
			Help:      "Swipes received, by direction and whether a new row was written",
		}, []string{"direction", "created"}),

		MatchesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Matches created",
		}),

		DiscoverDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discover_duration_seconds",
			Help:      "Discovery query latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		DiscoverResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discover_results",
			Help:      "Candidates returned per discovery query",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),

		// labels: result (hit|miss|error)
		UnseenCacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unseen_cache_total",
			Help:      "Unseen likes cache lookups by result",
		}, []string{"result"}),

		// labels: result (ok|error)
		IndexUpdatesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_index_updates_total",
			Help:      "Location writes into the geo index",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveSwipe(direction string, created bool) {
	if m == nil {
		return
	}
	m.SwipesTotal.WithLabelValues(direction, strconv.FormatBool(created)).Inc()
}

func (m *Metrics) ObserveMatch() {
	if m == nil {
		return
	}
	m.MatchesTotal.Inc()
}

func (m *Metrics) ObserveDiscover(seconds float64, results int) {
	if m == nil {
		return
	}
	m.DiscoverDuration.Observe(seconds)
	m.DiscoverResults.Observe(float64(results))
}

func (m *Metrics) ObserveUnseenCache(result string) {
	if m == nil {
		return
	}
	m.UnseenCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveIndexUpdate(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.IndexUpdatesTotal.WithLabelValues(result).Inc()
}
