package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/tripmate-match/internal/cache"
	"github.com/oggyb/tripmate-match/internal/config"
	"github.com/oggyb/tripmate-match/internal/geo"
	"github.com/oggyb/tripmate-match/internal/metrics"
	"github.com/oggyb/tripmate-match/internal/notify"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Geo        *geo.RedisIndex
	Notifier   notify.Notifier
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// New creates a new AppContext. The geo index and notifier share the Redis
// client; Metrics stays nil until the caller registers collectors.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Geo:        geo.NewRedisIndex(rdb.Client, cfg.Geo.Key),
		Notifier:   notify.NewRedisNotifier(rdb.Client, cfg.Notify.Channel),
		Logger:     logger,
	}
}
