package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/cache"
	"github.com/oggyb/tripmate-match/internal/config"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/logger"
	"github.com/oggyb/tripmate-match/internal/service/location"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts := db.DefaultSeedOptions()

	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flags.IntVarP(&opts.Users, "users", "n", opts.Users, "number of users to create")
	flags.Float64Var(&opts.CenterLat, "lat", opts.CenterLat, "latitude of the center point")
	flags.Float64Var(&opts.CenterLon, "lon", opts.CenterLon, "longitude of the center point")
	flags.Float64Var(&opts.SpreadKm, "spread-km", opts.SpreadKm, "max distance of a user from the center")
	flags.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed (default: current time)")
	timeout := flags.Duration("timeout", time.Minute, "give up after this long")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	database, err := db.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	users, err := db.SeedTestData(database, opts)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	appCtx := app.New(cfg, database, redisCache, log)
	n, err := location.NewService(appCtx).Reindex(ctx)
	if err != nil {
		return fmt.Errorf("index seeded users: %w", err)
	}

	log.Info("seeding completed", "users", len(users), "indexed", n, "seed", opts.Seed)
	return nil
}
