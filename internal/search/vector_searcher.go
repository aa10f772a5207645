package search

import (
	"context"
	"fmt"

	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/fusion"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/vector"
)

// QueryEncoder embeds a single query string into a dense vector. It is
// the same external boundary internal/build.Encoder is on the write
// path — one query text in, one embedding out — kept as its own
// interface here since a query-time encoder call has no batching.
type QueryEncoder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher mirrors BM25Searcher/TFIDFSearcher over the dense
// vector index type, substituting query embedding for tokenization.
type VectorSearcher struct {
	store    Store
	router   *shard.Router
	settings *config.Settings
	encoder  QueryEncoder
	cache    *loadCache[*vector.Index]
}

// NewVectorSearcher returns a searcher backed by st/router, embedding
// queries via encoder and caching up to cacheSize loaded indexes.
func NewVectorSearcher(st Store, router *shard.Router, settings *config.Settings, encoder QueryEncoder, cacheSize int) *VectorSearcher {
	return &VectorSearcher{
		store:    st,
		router:   router,
		settings: settings,
		encoder:  encoder,
		cache:    newLoadCache[*vector.Index](cacheSize),
	}
}

// Search embeds query, scores it against every active shard resolved
// for subreddit by cosine similarity, merges, and truncates to topK.
func (s *VectorSearcher) Search(ctx context.Context, query, subreddit string, topK int) ([]fusion.Hit, error) {
	if query == "" {
		return []fusion.Hit{}, nil
	}
	queryVec, err := s.encoder.EncodeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	shardIDs, err := s.router.Resolve(subreddit, "vector")
	if err != nil {
		return nil, err
	}

	hits, err := fanOutShards(ctx, shardIDs, s.settings.Search.MaxConcurrentShards, func(shardID string) ([]fusion.Hit, error) {
		idx, ok, err := s.loadShard(shardID)
		if err != nil {
			if skip, propagate := skipShardOnLoadError("vector", shardID, err); skip {
				return nil, nil
			} else {
				return nil, propagate
			}
		}
		if !ok {
			return nil, nil
		}
		scored := idx.Score(queryVec, topK)
		out := make([]fusion.Hit, len(scored))
		for i, h := range scored {
			out[i] = fusion.Hit{DocID: h.DocID, Score: h.Score, ShardID: shardID}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return mergeAndTruncate(hits, topK), nil
}

func (s *VectorSearcher) loadShard(shardID string) (*vector.Index, bool, error) {
	active, err := s.store.GetActive("vector", shardID)
	if err != nil {
		return nil, false, err
	}
	if active == nil {
		return nil, false, nil
	}

	path := s.settings.IndexFile("vector", shardID, active.Version, "vectors.bin")
	idx, err := s.cache.getOrLoad(path, func() (*vector.Index, error) {
		return vector.Load(path, s.settings.Vector.ApproximateThreshold)
	})
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}
