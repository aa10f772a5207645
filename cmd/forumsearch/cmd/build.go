package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/build"
	"github.com/forumsearch/core/internal/jobhandlers"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/staticembed"
)

func newBuildCmd() *cobra.Command {
	var subreddit string
	var shardID string
	var subreddits string

	cmd := &cobra.Command{
		Use:   "build <bm25|tfidf|vector|autocomplete|all>",
		Short: "Run one index build synchronously, bypassing the job queue",
		Long: `build runs the same builders the worker's build_index/rebuild jobs
run, but inline and synchronously: useful for a first index after
'forumsearch init', or for rebuilding one index type without starting
the worker pool.

With no --subreddit or --shard flag, build rebuilds every shard for
the given index type (or, for "all", every index type).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd, args[0], subreddit, shardID, subreddits)
		},
	}

	cmd.Flags().StringVar(&subreddit, "subreddit", "", "Build only this subreddit's shard")
	cmd.Flags().StringVar(&shardID, "shard", "", "Build a specific shard id (requires --subreddits)")
	cmd.Flags().StringVar(&subreddits, "subreddits", "", "Comma-separated subreddit list for --shard")

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, indexType, subreddit, shardID, subredditsFlag string) error {
	settings, st, err := openStoreAndSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	planner := shard.NewPlanner(settings.Shard.DedicatedThreshold, settings.Shard.GroupedShardName)
	progress := build.NewProgress()
	encoder := staticembed.New(settings.Vector.EmbeddingDim)
	builders := jobhandlers.NewBuilders(st, planner, settings, progress, encoder)

	indexTypes := []string{indexType}
	if indexType == "all" {
		indexTypes = []string{"bm25", "tfidf", "autocomplete", "vector"}
	}

	for _, it := range indexTypes {
		summaries, err := buildCLI(ctx, builders, it, subreddit, shardID, subredditsFlag)
		if err != nil {
			return fmt.Errorf("build %s: %w", it, err)
		}
		for _, s := range summaries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: %d docs -> %s\n", it, s.ShardID, s.DocCount, s.FilePath)
		}
	}
	return nil
}

func buildCLI(ctx context.Context, builders *jobhandlers.Builders, indexType, subreddit, shardID, subredditsFlag string) ([]build.Summary, error) {
	if shardID != "" {
		subs := splitCommaList(subredditsFlag)
		switch indexType {
		case "bm25":
			s, err := builders.BM25.BuildShard(shardID, subs)
			return []build.Summary{s}, err
		case "tfidf":
			s, err := builders.TFIDF.BuildShard(shardID, subs)
			return []build.Summary{s}, err
		case "vector":
			s, err := builders.Vector.BuildShard(ctx, shardID, subs)
			return []build.Summary{s}, err
		default:
			return nil, fmt.Errorf("%s has no shard-keyed build (it is label-keyed by subreddit)", indexType)
		}
	}

	if subreddit != "" {
		switch indexType {
		case "bm25":
			s, err := builders.BM25.BuildSubreddit(subreddit)
			return []build.Summary{s}, err
		case "tfidf":
			s, err := builders.TFIDF.BuildSubreddit(subreddit)
			return []build.Summary{s}, err
		case "vector":
			s, err := builders.Vector.BuildSubreddit(ctx, subreddit)
			return []build.Summary{s}, err
		case "autocomplete":
			s, err := builders.Autocomplete.BuildSubreddit(subreddit)
			return []build.Summary{s}, err
		default:
			return nil, fmt.Errorf("unknown index type %q", indexType)
		}
	}

	switch indexType {
	case "bm25":
		return builders.BM25.BuildAll()
	case "tfidf":
		return builders.TFIDF.BuildAll()
	case "vector":
		return builders.Vector.BuildAll(ctx)
	case "autocomplete":
		return builders.Autocomplete.BuildAll()
	default:
		return nil, fmt.Errorf("unknown index type %q", indexType)
	}
}

func splitCommaList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
