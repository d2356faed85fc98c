package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/metrics"
	"github.com/oggyb/tripmate-match/internal/server"
	"github.com/oggyb/tripmate-match/internal/service/discovery"
	"github.com/oggyb/tripmate-match/internal/service/likes"
	"github.com/oggyb/tripmate-match/internal/service/location"
	"github.com/oggyb/tripmate-match/internal/service/matching"
	"github.com/oggyb/tripmate-match/internal/service/swipe"
	"github.com/oggyb/tripmate-match/internal/transport/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC and HTTP APIs",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCtx, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	log := appCtx.Logger
	appCtx.Metrics = metrics.New(prometheus.DefaultRegisterer)

	locationSvc := location.NewService(appCtx)

	seeded := false
	if appCtx.Config.App.ENV == "development" {
		users, err := db.SeedTestData(appCtx.DB, db.DefaultSeedOptions())
		if err != nil {
			log.Error("failed to seed", "err", err)
		} else {
			log.Info("seeded demo data", "users", len(users))
			seeded = true
		}
	}

	if err := prepareIndex(ctx, appCtx, locationSvc, seeded); err != nil {
		return err
	}

	svc := matching.NewMatchingServiceWith(
		appCtx,
		discovery.NewPlanner(appCtx),
		swipe.NewService(appCtx),
		likes.NewService(appCtx),
		locationSvc,
	)

	grpcServer := server.NewGRPCServer(appCtx.Config, log, matching.NewRegistrarFor(svc))
	router := httpapi.NewRouter(appCtx, httpapi.NewHandler(svc), prometheus.DefaultGatherer)
	httpServer := server.NewHTTPServer(appCtx.Config, log, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return grpcServer.Run(gctx) })
	g.Go(func() error { return httpServer.Run(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}


// prepareIndex only rebuilds the GEO set after a fresh seed. Other
// instances may be writing locations while this one starts, and a rebuild
// would put their old positions back; use the reindex command instead.
func prepareIndex(ctx context.Context, appCtx *app.AppContext, locationSvc *location.Service, seeded bool) error {
	if seeded {
		_, err := locationSvc.Reindex(ctx)
		return err
	}

	size, err := appCtx.Geo.Size(ctx)
	if err != nil {
		return fmt.Errorf("check geo index: %w", err)
	}
	if size == 0 {
		appCtx.Logger.Warn("geo index is empty; run the reindex command to restore discovery")
	}
	return nil
}
