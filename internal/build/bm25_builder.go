package build

import (
	"log/slog"
	"path"
	"path/filepath"
	"strconv"

	"github.com/forumsearch/core/internal/bm25"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/store"
)

// BM25Builder builds and activates BM25 indexes per spec.md §4.10.
type BM25Builder struct {
	store    Store
	planner  *shard.Planner
	settings *config.Settings
	progress *Progress
}

// NewBM25Builder returns a builder reading documents from st and
// writing index files under settings.IndexDir.
func NewBM25Builder(st Store, planner *shard.Planner, settings *config.Settings, progress *Progress) *BM25Builder {
	return &BM25Builder{store: st, planner: planner, settings: settings, progress: progress}
}

// BuildSubreddit builds the BM25 index for the shard subreddit resolves
// to, via the planner.
func (b *BM25Builder) BuildSubreddit(subreddit string) (Summary, error) {
	shardID, err := shardForSubreddit(b.store, b.planner, subreddit)
	if err != nil {
		return Summary{}, err
	}
	return b.BuildShard(shardID, []string{subreddit})
}

// BuildShard builds a BM25 index spanning the given subreddits under
// one shard id.
func (b *BM25Builder) BuildShard(shardID string, subreddits []string) (Summary, error) {
	documents, err := b.store.TokensBySubreddits(subreddits)
	if err != nil {
		return Summary{}, err
	}
	if len(documents) == 0 {
		return Summary{ShardID: shardID, Subreddits: subreddits}, nil
	}

	b.progress.Start("bm25", shardID)

	var summary Summary
	err = withShardLock(b.settings.IndexDir("bm25", shardID), func() error {
		idx := bm25.New(b.settings.BM25.K1, b.settings.BM25.B)
		idx.Build(documents)

		version, err := b.store.GetLatestVersionNumber("bm25", shardID)
		if err != nil {
			return err
		}
		version++

		relPath := path.Join("data", "indexes", "bm25", shardID, versionDir(version), "index.bin")
		absPath := filepath.Join(b.settings.IndexDir("bm25", shardID), versionDir(version), "index.bin")
		if err := idx.Save(absPath); err != nil {
			return err
		}

		if _, err := b.store.InsertIndexVersion(store.IndexVersion{
			IndexType: "bm25",
			ShardID:   shardID,
			Version:   version,
			Status:    store.IndexStatusBuilding,
			DocCount:  idx.DocCount(),
			FilePath:  relPath,
		}); err != nil {
			return err
		}
		if err := b.store.Activate("bm25", shardID, version); err != nil {
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
		b.progress.Fail("bm25", shardID, err)
		return Summary{}, err
	}

	b.progress.Done("bm25", shardID, summary.Version, summary.DocCount)
	slog.Info("built bm25 index", "shard_id", shardID, "doc_count", summary.DocCount, "version", summary.Version)
	return summary, nil
}

// BuildAll builds a BM25 index for every shard in the current plan.
func (b *BM25Builder) BuildAll() ([]Summary, error) {
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

func versionDir(version int) string {
	return "v" + strconv.Itoa(version)
}
