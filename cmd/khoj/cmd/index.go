package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaipakiran/khoj/internal/pipeline"
	"github.com/kaipakiran/khoj/internal/progress"
	"github.com/kaipakiran/khoj/internal/walker"
)

func newIndexCmd() *cobra.Command {
	var (
		semantic bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory for searching",
		Long: `Index a directory to enable hybrid search over its contents.

Scans files under path, extracts text content, builds a BM25 keyword
index, and — with --semantic — also embeds each file into the vector
store for dense semantic search.

A file whose content hasn't changed since the last index run is skipped,
so re-running index is safe and cheap.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			absRoot, err := filepathAbs(root)
			if err != nil {
				return err
			}

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

			deps := pipeline.Dependencies{
				Metadata:     stores.Metadata,
				BM25:         stores.BM25,
				Vectors:      stores.Vectors,
				ImageVectors: stores.ImageVectors,
			}

			var embs *embedders
			if semantic {
				embs, err = loadEmbedders()
				if err != nil {
					return fmt.Errorf("load embedding models: %w", err)
				}
				if !embs.HasText() {
					out.Warning("no text embedding model found; indexing keyword-only. See model search paths in the docs.")
				} else {
					deps.TextEmbedder = embs.Text
				}
				if embs.Image != nil {
					deps.ImageEmbedder = embs.Image
				}
				defer embs.Close()
			}

			w, err := walker.New()
			if err != nil {
				return fmt.Errorf("create walker: %w", err)
			}
			deps.Walker = w

			if verbose {
				out.Status("", fmt.Sprintf("indexing %s", absRoot))
				deps.Reporter = progress.NewLineReporter(cmd.OutOrStdout(), 500*time.Millisecond)
			}

			p, err := pipeline.New(deps)
			if err != nil {
				return fmt.Errorf("create pipeline: %w", err)
			}

			stats, err := p.Run(ctx, absRoot, cfg.Storage.IndexPath, cfg.Privacy.ToWalkerProfile())
			if err != nil {
				slog.Error("index_failed", slog.Any("error", err))
				return fmt.Errorf("index failed: %w", err)
			}

			if !verbose {
				out.Successf("indexed %d files (%d skipped, %d embedded) in %s",
					stats.FilesIndexed, stats.FilesSkipped, stats.FilesEmbedded, stats.Duration.Round(10e6))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&semantic, "semantic", "s", false, "also build the dense-vector semantic index")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print progress as files are indexed")

	return cmd
}
