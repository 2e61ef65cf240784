package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply cache and relay store schemas",
	Long:  "Creates the SQLite cache table (when cache.driver is sqlite) and the relay_points table (when store.database_url is set).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// Opening the app migrates the SQLite cache.
		a, err := openApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		m, ok := a.repo.(migrator)
		if !ok {
			zap.L().Info("no relay database configured, skipping relay_points")
			return nil
		}
		if err := m.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate relay store")
		}

		zap.L().Info("migrations applied", zap.String("cache", cfg.Cache.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
