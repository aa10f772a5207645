package build

import (
	"log/slog"
	"path"
	"path/filepath"

	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/store"
	"github.com/forumsearch/core/internal/tfidf"
)

// TFIDFBuilder builds and activates TF-IDF indexes per spec.md §4.10.
type TFIDFBuilder struct {
	store    Store
	planner  *shard.Planner
	settings *config.Settings
	progress *Progress
}

// NewTFIDFBuilder returns a builder reading documents from st and
// writing index files under settings.IndexDir.
func NewTFIDFBuilder(st Store, planner *shard.Planner, settings *config.Settings, progress *Progress) *TFIDFBuilder {
	return &TFIDFBuilder{store: st, planner: planner, settings: settings, progress: progress}
}

// BuildSubreddit builds the TF-IDF index for the shard subreddit
// resolves to, via the planner.
func (b *TFIDFBuilder) BuildSubreddit(subreddit string) (Summary, error) {
	shardID, err := shardForSubreddit(b.store, b.planner, subreddit)
	if err != nil {
		return Summary{}, err
	}
	return b.BuildShard(shardID, []string{subreddit})
}

// BuildShard builds a TF-IDF index spanning the given subreddits under
// one shard id. If MaxDocsPerShard is set and the shard exceeds it,
// the build is skipped (too large to keep a dense matrix in memory)
// and a zero summary is returned.
func (b *TFIDFBuilder) BuildShard(shardID string, subreddits []string) (Summary, error) {
	documents, err := b.store.TokensBySubreddits(subreddits)
	if err != nil {
		return Summary{}, err
	}
	if len(documents) == 0 {
		return Summary{ShardID: shardID, Subreddits: subreddits}, nil
	}
	if max := b.settings.TFIDF.MaxDocsPerShard; max > 0 && len(documents) > max {
		slog.Warn("skipping tfidf build: shard exceeds max_docs_per_shard",
			"shard_id", shardID, "doc_count", len(documents), "max", max)
		return Summary{ShardID: shardID, Subreddits: subreddits}, nil
	}

	b.progress.Start("tfidf", shardID)

	var summary Summary
	err = withShardLock(b.settings.IndexDir("tfidf", shardID), func() error {
		idx := tfidf.New()
		idx.Build(documents)

		version, err := b.store.GetLatestVersionNumber("tfidf", shardID)
		if err != nil {
			return err
		}
		version++

		relPath := path.Join("data", "indexes", "tfidf", shardID, versionDir(version), "index.bin")
		absPath := filepath.Join(b.settings.IndexDir("tfidf", shardID), versionDir(version), "index.bin")
		if err := idx.Save(absPath); err != nil {
			return err
		}

		if _, err := b.store.InsertIndexVersion(store.IndexVersion{
			IndexType: "tfidf",
			ShardID:   shardID,
			Version:   version,
			Status:    store.IndexStatusBuilding,
			DocCount:  idx.DocCount(),
			FilePath:  relPath,
		}); err != nil {
			return err
		}
		if err := b.store.Activate("tfidf", shardID, version); err != nil {
			return err
		}

		summary = Summary{
			ShardID:    shardID,
			Subreddits: subreddits,
			Version:    version,
			DocCount:   idx.DocCount(),
			FilePath:   relPath,
		}
		return nil
	})
	if err != nil {
		b.progress.Fail("tfidf", shardID, err)
		return Summary{}, err
	}

	b.progress.Done("tfidf", shardID, summary.Version, summary.DocCount)
	slog.Info("built tfidf index", "shard_id", shardID, "doc_count", summary.DocCount, "version", summary.Version)
	return summary, nil
}

// BuildAll builds a TF-IDF index for every shard in the current plan.
func (b *TFIDFBuilder) BuildAll() ([]Summary, error) {
	plan, err := resolvePlan(b.store, b.planner)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(plan.ShardIDs()))
	for _, shardID := range plan.ShardIDs() {
		subs := plan.SubredditsIn(shardID)
		summary, err := b.BuildShard(shardID, subs)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
