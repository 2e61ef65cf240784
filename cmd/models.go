package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and remove saved models",
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved model as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.models.Load(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), m)
	},
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a saved model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.models.Delete(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("model deleted", zap.String("model", args[0]))
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsShowCmd, modelsDeleteCmd)
	rootCmd.AddCommand(modelsCmd)
}
