package main

import (
	"github.com/spf13/cobra"

	"github.com/oggyb/tripmate-match/internal/service/location"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Redis GEO index from stored user locations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		appCtx, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := location.NewService(appCtx).Reindex(cmd.Context())
		if err != nil {
			return err
		}
		appCtx.Logger.Info("geo index rebuilt", "users", n)
		return nil
	},
}
