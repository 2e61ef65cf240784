package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/placement"
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place K relay points for a demand CSV",
	Long: `Loads the region boundary and candidate cities, drops demand outside the
region, clusters the rest onto K cities, and prints the run report as JSON.

Examples:
  relay-cli place --demand demand.csv --k 12
  relay-cli place --demand demand.csv --k 12 --seed 7 --publish --save-model fr-2026`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts, err := placeOptions(cmd)
		if err != nil {
			return err
		}
		demandPath, _ := cmd.Flags().GetString("demand")
		demand, err := readDemandCSV(demandPath)
		if err != nil {
			return err
		}

		a, err := openApp(ctx, cfg, opts.Publish)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := placement.Run(ctx, a.deps(), opts, demand)
		if err != nil {
			return eris.Wrap(err, "place")
		}

		zap.L().Info("relay points placed",
			zap.String("run_id", report.RunID),
			zap.Int("relays", len(report.Centroids)),
			zap.String("state", report.State),
		)
		return writeJSON(cmd.OutOrStdout(), report)
	},
}

// placeOptions starts from the placement config and applies the flags the
// user set explicitly.
func placeOptions(cmd *cobra.Command) (placement.Options, error) {
	opts := placement.Options{
		K:             cfg.Placement.K,
		Seed:          cfg.Placement.Seed,
		MaxIterations: cfg.Placement.MaxIterations,
	}
	flags := cmd.Flags()
	if flags.Changed("k") {
		opts.K, _ = flags.GetInt("k")
	}
	if flags.Changed("seed") {
		opts.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("max-iterations") {
		opts.MaxIterations, _ = flags.GetInt("max-iterations")
	}
	opts.Publish, _ = flags.GetBool("publish")
	opts.ModelName, _ = flags.GetString("save-model")

	if opts.K < 1 {
		return opts, eris.Errorf("--k must be at least 1, got %d", opts.K)
	}
	return opts, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	placeCmd.Flags().String("demand", "", "path to demand CSV with latitude,longitude[,weight] (required)")
	placeCmd.Flags().Int("k", 0, "number of relay points (default placement.k)")
	placeCmd.Flags().Int64("seed", 0, "random seed for the initial cities (default placement.seed)")
	placeCmd.Flags().Int("max-iterations", 0, "iteration limit (default placement.max_iterations)")
	placeCmd.Flags().Bool("publish", false, "write the relay points to the relay store")
	placeCmd.Flags().String("save-model", "", "save the relay points under this model name")
	_ = placeCmd.MarkFlagRequired("demand")
	rootCmd.AddCommand(placeCmd)
}
