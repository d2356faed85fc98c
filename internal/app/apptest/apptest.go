// Package apptest wires an AppContext over SQLite and miniredis for tests.
package apptest

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/cache"
	"github.com/oggyb/tripmate-match/internal/config"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/db/dbtest"
	"github.com/oggyb/tripmate-match/internal/logger"
	"github.com/oggyb/tripmate-match/internal/metrics"
)

// Env is a ready AppContext plus handles on its fakes.
type Env struct {
	App      *app.AppContext
	Redis    *miniredis.Miniredis
	Notifier *Recorder
	Registry *prometheus.Registry
}

// New builds an isolated environment. Each call gets its own database,
// Redis and metrics registry.
func New(t *testing.T) *Env {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Password = ""
	cfg.Redis.DB = 0

	rdb := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rdb.Close() })

	appCtx := app.New(cfg, dbtest.Open(t), rdb, logger.Discard())

	rec := &Recorder{}
	appCtx.Notifier = rec

	reg := prometheus.NewRegistry()
	appCtx.Metrics = metrics.New(reg)

	return &Env{App: appCtx, Redis: mr, Notifier: rec, Registry: reg}
}

// Recorder is a notifier that remembers what it was asked to send.
type Recorder struct {
	mu      sync.Mutex
	Matches []db.Match
	Likes   []db.Swipe
}

func (r *Recorder) MatchCreated(_ context.Context, m db.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Matches = append(r.Matches, m)
	return nil
}

func (r *Recorder) LikeReceived(_ context.Context, s db.Swipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Likes = append(r.Likes, s)
	return nil
}

// Counts returns how many match and like events were recorded.
func (r *Recorder) Counts() (matches, likes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Matches), len(r.Likes)
}
