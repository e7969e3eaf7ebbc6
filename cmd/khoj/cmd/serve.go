package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kaipakiran/khoj/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Long:  `Starts an HTTP server exposing /api/search, /api/stats, and /api/file/:id over an existing index.`,
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

			embs, err := loadEmbedders()
			if err != nil {
				return fmt.Errorf("load embedding models: %w", err)
			}
			defer embs.Close()

			engine, err := buildEngine(stores, embs)
			if err != nil {
				return fmt.Errorf("create query engine: %w", err)
			}

			srv := httpapi.NewServer(engine, stores.Metadata, cfg.Storage.IndexPath, embs.HasText())
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
			out.Successf("serving search API on http://%s", addr)

			return http.ListenAndServe(addr, srv.Router())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "port to listen on")

	return cmd
}
