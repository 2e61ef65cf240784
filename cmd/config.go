package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a config.yaml holding every default",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return config.WriteExample(cmd.OutOrStdout())
		}

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrap(err, "create config file")
		}
		defer f.Close() //nolint:errcheck

		if err := config.WriteExample(f); err != nil {
			return err
		}
		zap.L().Info("example config written", zap.String("path", out))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the loaded configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		zap.L().Info("configuration is valid")
		return nil
	},
}

func init() {
	configExampleCmd.Flags().String("output", "", "write to this file instead of stdout")
	configCmd.AddCommand(configExampleCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
