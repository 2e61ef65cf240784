package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Manage cached reference data (boundary and cities)",
}

var refdataWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Load the boundary and cities into the cache",
	Long:  "Loads the boundary and candidate cities from their sources unless already cached, so later runs work offline.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.refData.Warm(ctx); err != nil {
			return err
		}
		b, err := a.refData.Boundary(ctx)
		if err != nil {
			return err
		}
		cities, err := a.refData.Cities(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"dataset":  cfg.RefData.Dataset,
			"polygons": b.NumPolygons(),
			"cities":   len(cities),
		})
	},
}

var refdataInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the cached boundary and cities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.refData.Invalidate(ctx); err != nil {
			return err
		}
		zap.L().Info("reference data invalidated", zap.String("dataset", cfg.RefData.Dataset))
		return nil
	},
}

func init() {
	refdataCmd.AddCommand(refdataWarmCmd, refdataInvalidateCmd)
	rootCmd.AddCommand(refdataCmd)
}
