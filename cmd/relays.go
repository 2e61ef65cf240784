package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/relay-cli/internal/model"
)

var relaysCmd = &cobra.Command{
	Use:   "relays",
	Short: "Query published relay points",
}

var relaysListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print published relay points as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		relays, err := a.repo.List(ctx)
		if err != nil {
			return err
		}
		if relays == nil {
			relays = []model.RelayPoint{}
		}
		return writeJSON(cmd.OutOrStdout(), relays)
	},
}

func init() {
	relaysCmd.AddCommand(relaysListCmd)
	rootCmd.AddCommand(relaysCmd)
}
