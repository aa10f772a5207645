// Package search loads active index files per shard, scores queries
// against each index type, and fans out across shards concurrently.
// Cross-index-type combination (linear weighting / RRF) lives in
// internal/fusion; this package produces the raw per-source hit lists
// fusion consumes.
package search

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/forumsearch/core/internal/forumerr"
	"github.com/forumsearch/core/internal/fusion"
	"github.com/forumsearch/core/internal/store"
	"golang.org/x/sync/errgroup"
)

// Store is the subset of *store.DB the searchers need.
type Store interface {
	GetActive(indexType, shardID string) (*store.IndexVersion, error)
}

// TextPreprocessor tokenizes/normalizes raw query text before BM25 and
// TF-IDF scoring. It is an external boundary — the preprocessing
// pipeline's exact rules are out of scope here — supplied by the
// caller at construction time.
type TextPreprocessor interface {
	Tokenize(text string) []string
}

// fanOutShards scores query across shardIDs concurrently, bounded to
// maxConcurrent in flight, and concatenates every non-empty result.
// Mirrors the teacher's bounded errgroup + semaphore shard fan-out
// idiom, generalized from sub-query decomposition to shard routing.
func fanOutShards(ctx context.Context, shardIDs []string, maxConcurrent int, score func(shardID string) ([]fusion.Hit, error)) ([]fusion.Hit, error) {
	if len(shardIDs) == 0 {
		return []fusion.Hit{}, nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	results := make([][]fusion.Hit, len(shardIDs))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxConcurrent)

	for i, shardID := range shardIDs {
		i, shardID := i, shardID
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			hits, err := score(shardID)
			if err != nil {
				return err
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []fusion.Hit
	for _, hits := range results {
		out = append(out, hits...)
	}
	if out == nil {
		out = []fusion.Hit{}
	}
	return out, nil
}

// skipShardOnLoadError implements spec.md §7's per-shard recovery
// policy: a missing or corrupt index file logs and is skipped, letting
// the query return partial results from surviving shards. Any other
// error (a storage failure resolving the active version, say) still
// propagates and fails the whole search.
func skipShardOnLoadError(indexType, shardID string, err error) (skip bool, propagate error) {
	if os.IsNotExist(err) {
		err = forumerr.IndexMissing(indexType+"/"+shardID+": index file missing on disk", err)
	}
	switch forumerr.KindOf(err) {
	case forumerr.KindIndexMissing, forumerr.KindIndexCorrupt:
		slog.Warn("skipping shard: index unreadable", "index_type", indexType, "shard_id", shardID, "error", err)
		return true, nil
	default:
		return false, err
	}
}

// mergeAndTruncate implements spec.md §4.6's merge step: concatenate
// per-shard hits, sort by score descending (doc_id ascending tie-break
// for run-to-run stability), truncate to topK. Scores are NOT
// renormalized across shards.
func mergeAndTruncate(hits []fusion.Hit, topK int) []fusion.Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	if topK >= 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
