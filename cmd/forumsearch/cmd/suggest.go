package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd() *cobra.Command {
	var subreddit string
	var topK int

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Autocomplete suggestions for a title prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, args[0], subreddit, topK)
		},
	}

	cmd.Flags().StringVar(&subreddit, "subreddit", "", "Prefer this subreddit's trie, falling back to the global one")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of suggestions (default: configured max_suggestions)")

	return cmd
}

func runSuggest(cmd *cobra.Command, prefix, subreddit string, topK int) error {
	settings, st, err := openStoreAndSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	suggester := newSuggester(settings)
	suggestions := suggester.Suggest(prefix, subreddit, topK)

	if len(suggestions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no suggestions")
		return nil
	}

	for i, s := range suggestions {
		fmt.Fprintf(cmd.OutOrStdout(), "%3d. %-40s score=%.2f\n", i+1, s.Term, s.Score)
	}
	return nil
}
