package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := newPrinter(cmd.OutOrStdout())

			if !yes {
				out.Status("", fmt.Sprintf("this will delete %s. continue? [y/N] ", cfg.Storage.IndexPath))
				reader := bufio.NewReader(cmd.InOrStdin())
				line, _ := reader.ReadString('\n')
				if line != "y\n" && line != "Y\n" && line != "yes\n" {
					out.Status("", "aborted")
					return nil
				}
			}

			if err := os.RemoveAll(cfg.Storage.IndexPath); err != nil {
				return fmt.Errorf("clear index: %w", err)
			}

			out.Success("index cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
