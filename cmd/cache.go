package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

type keyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the durable cache",
}

var cacheKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List cached keys (sqlite driver only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		c, err := openCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		lister, ok := c.(keyLister)
		if !ok {
			return eris.Errorf("cache driver %q cannot list keys", cfg.Cache.Driver)
		}
		keys, err := lister.Keys(ctx)
		if err != nil {
			return err
		}
		if keys == nil {
			keys = []string{}
		}
		return writeJSON(cmd.OutOrStdout(), keys)
	},
}

func init() {
	cacheCmd.AddCommand(cacheKeysCmd)
	rootCmd.AddCommand(cacheCmd)
}
