// Package jobhandlers wires internal/jobs.Handler functions for the
// build_index and rebuild job types to the internal/build orchestrators.
// crawl and preprocess job types are deliberately left unregistered:
// the crawler and text-preprocessing pipeline that would populate
// raw_posts/processed_posts are out of scope for this repository, so a
// worker pool that claims one of those job types fails it with "no
// handler registered" rather than silently dropping it.
package jobhandlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forumsearch/core/internal/build"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/jobs"
	"github.com/forumsearch/core/internal/shard"
)

// buildIndexPayload mirrors internal/jobs.Pool.EnqueueBuildIndex's
// wire format.
type buildIndexPayload struct {
	IndexType string `json:"index_type"`
	Subreddit string `json:"subreddit"`
}

// Builders bundles one constructed builder per index type, shared by
// both the build_index and rebuild handlers.
type Builders struct {
	BM25         *build.BM25Builder
	TFIDF        *build.TFIDFBuilder
	Vector       *build.VectorBuilder
	Autocomplete *build.AutocompleteBuilder
}

// NewBuilders constructs one builder per index type over a shared
// store, planner, settings, and progress tracker.
func NewBuilders(st build.Store, planner *shard.Planner, settings *config.Settings, progress *build.Progress, encoder build.Encoder) *Builders {
	return &Builders{
		BM25:         build.NewBM25Builder(st, planner, settings, progress),
		TFIDF:        build.NewTFIDFBuilder(st, planner, settings, progress),
		Vector:       build.NewVectorBuilder(st, planner, settings, progress, encoder),
		Autocomplete: build.NewAutocompleteBuilder(st, settings, progress),
	}
}

// Register installs the build_index and rebuild handlers on pool.
func Register(pool *jobs.Pool, builders *Builders) {
	pool.Register("build_index", BuildIndexHandler(builders))
	pool.Register("rebuild", RebuildHandler(builders))
}

// BuildIndexHandler returns a Handler for the build_index job type:
// payload selects one index_type and either "all" or a single
// subreddit.
func BuildIndexHandler(builders *Builders) jobs.Handler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var p buildIndexPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("build_index: invalid payload: %w", err)
		}
		return buildOne(ctx, builders, p.IndexType, p.Subreddit)
	}
}

// RebuildHandler returns a Handler for the rebuild job type: a full
// build-all pass across every index type, in dependency order (cheap
// lexical indexes first, vector last since it is the only one that
// suspends on an encoder call).
func RebuildHandler(builders *Builders) jobs.Handler {
	return func(ctx context.Context, _ json.RawMessage) error {
		for _, indexType := range []string{"bm25", "tfidf", "autocomplete", "vector"} {
			if err := buildOne(ctx, builders, indexType, "all"); err != nil {
				return fmt.Errorf("rebuild: %s: %w", indexType, err)
			}
		}
		return nil
	}
}

func buildOne(ctx context.Context, builders *Builders, indexType, subreddit string) error {
	all := subreddit == "" || subreddit == "all"

	switch indexType {
	case "bm25":
		if all {
			_, err := builders.BM25.BuildAll()
			return err
		}
		_, err := builders.BM25.BuildSubreddit(subreddit)
		return err
	case "tfidf":
		if all {
			_, err := builders.TFIDF.BuildAll()
			return err
		}
		_, err := builders.TFIDF.BuildSubreddit(subreddit)
		return err
	case "vector":
		if all {
			_, err := builders.Vector.BuildAll(ctx)
			return err
		}
		_, err := builders.Vector.BuildSubreddit(ctx, subreddit)
		return err
	case "autocomplete":
		if all {
			_, err := builders.Autocomplete.BuildAll()
			return err
		}
		_, err := builders.Autocomplete.BuildSubreddit(subreddit)
		return err
	default:
		return fmt.Errorf("build_index: unknown index_type %q", indexType)
	}
}
