package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/search"
)

func newSearchCmd() *cobra.Command {
	var subreddit string
	var indexType string
	var topK int
	var fusion string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search query against the active indexes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := joinArgs(args)
			return runSearch(cmd, query, subreddit, indexType, topK, fusion)
		},
	}

	cmd.Flags().StringVar(&subreddit, "subreddit", "", "Restrict the query to one subreddit's shard")
	cmd.Flags().StringVar(&indexType, "index-type", "", "Restrict to one source: bm25, tfidf, vector (default: hybrid)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of results to return (default: configured page size)")
	cmd.Flags().StringVar(&fusion, "fusion", "linear", "Hybrid fusion mode: linear or rrf")

	return cmd
}

func runSearch(cmd *cobra.Command, query, subreddit, indexType string, topK int, fusionMode string) error {
	settings, st, err := openStoreAndSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := newEngine(settings, st)

	mode := search.FusionLinear
	if fusionMode == "rrf" {
		mode = search.FusionRRF
	}

	hits, err := engine.Search(cmd.Context(), search.Request{
		Query:     query,
		Subreddit: subreddit,
		IndexType: indexType,
		TopK:      topK,
		Fusion:    mode,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(hits) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no results")
		return nil
	}

	for i, h := range hits {
		fmt.Fprintf(cmd.OutOrStdout(), "%3d. %-24s score=%.4f shard=%s (bm25=%.4f tfidf=%.4f vector=%.4f)\n",
			i+1, h.DocID, h.Score, h.ShardID, h.BM25Score, h.TFIDFScore, h.VectorScore)
	}
	return nil
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}
