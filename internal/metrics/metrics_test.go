package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/oggyb/tripmate-match/internal/metrics"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveSwipe("like", true)
	m.ObserveSwipe("like", true)
	m.ObserveSwipe("pass", false)
	m.ObserveMatch()
	m.ObserveDiscover(0.02, 7)
	m.ObserveUnseenCache("hit")
	m.ObserveIndexUpdate(nil)
	m.ObserveIndexUpdate(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SwipesTotal.WithLabelValues("like", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SwipesTotal.WithLabelValues("pass", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnseenCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexUpdatesTotal.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DiscoverDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveSwipe("like", true)
		m.ObserveMatch()
		m.ObserveDiscover(1, 1)
		m.ObserveUnseenCache("miss")
		m.ObserveIndexUpdate(nil)
	})
}
