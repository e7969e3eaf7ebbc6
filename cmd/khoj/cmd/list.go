package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed files",
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

			files, err := stores.Metadata.ListFiles(cmd.Context(), limit, 0)
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}

			for _, f := range files {
				out.Status("", fmt.Sprintf("%d\t%s\t%s", f.ID, f.Path, f.Kind))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of files to list")

	return cmd
}
