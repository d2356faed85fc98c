package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/cache"
	"github.com/oggyb/tripmate-match/internal/config"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "tripmate-match",
	Short:         "Discovery and matching engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads config and opens the database and Redis. The returned
// cleanup closes Redis.
func bootstrap(ctx context.Context) (*app.AppContext, func(), error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, nil, err
		}
	}
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		_ = redisCache.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	cleanup := func() {
		if err := redisCache.Close(); err != nil {
			log.Warn("closing redis failed", "err", err)
		}
	}

	log.Debug("bootstrap complete", slog.String("env", cfg.App.ENV))
	return app.New(cfg, database, redisCache, log), cleanup, nil
}
