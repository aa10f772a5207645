package build

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/store"
	"github.com/forumsearch/core/internal/vector"
)

// VectorBuilder encodes raw post text and builds dense vector indexes
// per spec.md §4.10. The encoder is supplied lazily by the caller:
// nothing in this package constructs one, keeping the expensive
// sentence-embedding model out of the build path until first use.
type VectorBuilder struct {
	store    Store
	planner  *shard.Planner
	settings *config.Settings
	progress *Progress
	encoder  Encoder
}

// NewVectorBuilder returns a builder that encodes text via encoder and
// writes vector index files under settings.IndexDir.
func NewVectorBuilder(st Store, planner *shard.Planner, settings *config.Settings, progress *Progress, encoder Encoder) *VectorBuilder {
	return &VectorBuilder{store: st, planner: planner, settings: settings, progress: progress, encoder: encoder}
}

// BuildSubreddit encodes and indexes the shard subreddit resolves to,
// via the planner.
func (b *VectorBuilder) BuildSubreddit(ctx context.Context, subreddit string) (Summary, error) {
	shardID, err := shardForSubreddit(b.store, b.planner, subreddit)
	if err != nil {
		return Summary{}, err
	}
	return b.BuildShard(ctx, shardID, []string{subreddit})
}

// BuildShard encodes title+body text for the given subreddits and
// builds a vector index under one shard id. Posts are encoded in
// batches of Settings.Vector.EncodeBatchSize to bound peak memory and
// allow Encoder to be backed by a remote call without unbounded-size
// requests.
func (b *VectorBuilder) BuildShard(ctx context.Context, shardID string, subreddits []string) (Summary, error) {
	posts, err := b.store.ListBySubreddits(subreddits)
	if err != nil {
		return Summary{}, err
	}
	if len(posts) == 0 {
		return Summary{ShardID: shardID, Subreddits: subreddits}, nil
	}

	docIDs := make([]string, len(posts))
	texts := make([]string, len(posts))
	for i, p := range posts {
		body := ""
		if p.Body != nil {
			body = *p.Body
		}
		docIDs[i] = p.ID
		texts[i] = strings.TrimSpace(p.Title + " " + body)
	}

	batchSize := b.settings.Vector.EncodeBatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	vectors, err := encodeInBatches(ctx, b.encoder, texts, batchSize)
	if err != nil {
		return Summary{}, err
	}

	b.progress.Start("vector", shardID)

	var summary Summary
	err = withShardLock(b.settings.IndexDir("vector", shardID), func() error {
		idx := vector.New(b.settings.Vector.ApproximateThreshold)
		idx.Build(docIDs, vectors)

		version, err := b.store.GetLatestVersionNumber("vector", shardID)
		if err != nil {
			return err
		}
		version++

		relPath := path.Join("data", "indexes", "vector", shardID, versionDir(version), "vectors.bin")
		absPath := filepath.Join(b.settings.IndexDir("vector", shardID), versionDir(version), "vectors.bin")
		if err := idx.Save(absPath); err != nil {
			return err
		}

		if _, err := b.store.InsertIndexVersion(store.IndexVersion{
			IndexType: "vector",
			ShardID:   shardID,
			Version:   version,
			Status:    store.IndexStatusBuilding,
			DocCount:  idx.DocCount(),
			FilePath:  relPath,
		}); err != nil {
			return err
		}
		if err := b.store.Activate("vector", shardID, version); err != nil {
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
		b.progress.Fail("vector", shardID, err)
		return Summary{}, err
	}

	b.progress.Done("vector", shardID, summary.Version, summary.DocCount)
	slog.Info("built vector index", "shard_id", shardID, "doc_count", summary.DocCount, "version", summary.Version)
	return summary, nil
}

// BuildAll encodes and indexes every shard in the current plan.
func (b *VectorBuilder) BuildAll(ctx context.Context) ([]Summary, error) {
	plan, err := resolvePlan(b.store, b.planner)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(plan.ShardIDs()))
	for _, shardID := range plan.ShardIDs() {
		subs := plan.SubredditsIn(shardID)
		summary, err := b.BuildShard(ctx, shardID, subs)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func encodeInBatches(ctx context.Context, encoder Encoder, texts []string, batchSize int) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := encoder.Encode(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}
