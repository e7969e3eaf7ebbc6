package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := newPrinter(cmd.OutOrStdout())

			stores, err := openStores(cfg)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer stores.Close()

			ctx := cmd.Context()
			stats, err := stores.Metadata.Stats(ctx)
			if err != nil {
				return fmt.Errorf("read stats: %w", err)
			}

			out.Status("", fmt.Sprintf("total files:          %d", stats.TotalFiles))
			out.Status("", fmt.Sprintf("index location:       %s", cfg.Storage.IndexPath))
			out.Status("", fmt.Sprintf("has keyword index:    %t", true))
			out.Status("", fmt.Sprintf("has semantic index:   %t", stores.Vectors.Len() > 0))
			return nil
		},
	}

	return cmd
}
