package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// runBareQuery implements the root command's bare `khoj <query>` form:
// open the index, run a search, and print results as plain text.
func runBareQuery(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	semantic, _ := cmd.Flags().GetBool("semantic")
	keywordWeight, _ := cmd.Flags().GetFloat64("keyword-weight")

	query := strings.Join(args, " ")

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

	if semantic && !embs.HasText() {
		return fmt.Errorf("--semantic requested but no text embedding model is installed")
	}

	engine, err := buildEngine(stores, embs)
	if err != nil {
		return fmt.Errorf("create query engine: %w", err)
	}

	result, err := engine.Search(cmd.Context(), query, limit, semantic, keywordWeight)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(result.Documents) == 0 {
		out.Status("", "no matches")
		return nil
	}

	for i, d := range result.Documents {
		out.Status("", fmt.Sprintf("%d. %s  (score %.4f)", i+1, d.Path, d.Score))
		if d.Snippet != "" {
			out.Status("", "   "+d.Snippet)
		}
	}
	return nil
}
