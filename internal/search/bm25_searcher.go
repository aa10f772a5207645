package search

import (
	"context"

	"github.com/forumsearch/core/internal/bm25"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/fusion"
	"github.com/forumsearch/core/internal/shard"
)

// BM25Searcher resolves shards for a query, loads each shard's active
// BM25 index (memoized by file path), scores, and merges.
type BM25Searcher struct {
	store        Store
	router       *shard.Router
	settings     *config.Settings
	preprocessor TextPreprocessor
	cache        *loadCache[*bm25.Index]
}

// NewBM25Searcher returns a searcher backed by st/router, tokenizing
// queries via preprocessor and caching up to cacheSize loaded indexes.
func NewBM25Searcher(st Store, router *shard.Router, settings *config.Settings, preprocessor TextPreprocessor, cacheSize int) *BM25Searcher {
	return &BM25Searcher{
		store:        st,
		router:       router,
		settings:     settings,
		preprocessor: preprocessor,
		cache:        newLoadCache[*bm25.Index](cacheSize),
	}
}

// Search scores query against every active shard resolved for
// subreddit (all active shards if subreddit is empty), merging and
// truncating to topK.
func (s *BM25Searcher) Search(ctx context.Context, query, subreddit string, topK int) ([]fusion.Hit, error) {
	tokens := s.preprocessor.Tokenize(query)
	if len(tokens) == 0 {
		return []fusion.Hit{}, nil
	}

	shardIDs, err := s.router.Resolve(subreddit, "bm25")
	if err != nil {
		return nil, err
	}

	hits, err := fanOutShards(ctx, shardIDs, s.settings.Search.MaxConcurrentShards, func(shardID string) ([]fusion.Hit, error) {
		idx, ok, err := s.loadShard(shardID)
		if err != nil {
			if skip, propagate := skipShardOnLoadError("bm25", shardID, err); skip {
				return nil, nil
			} else {
				return nil, propagate
			}
		}
		if !ok {
			return nil, nil
		}
		scored := idx.Score(tokens, topK)
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

// loadShard returns the shard's active BM25 index, memoized by its
// resolved file path. ok is false if the shard has no active index.
func (s *BM25Searcher) loadShard(shardID string) (*bm25.Index, bool, error) {
	active, err := s.store.GetActive("bm25", shardID)
	if err != nil {
		return nil, false, err
	}
	if active == nil {
		return nil, false, nil
	}

	path := s.settings.IndexFile("bm25", shardID, active.Version, "index.bin")
	idx, err := s.cache.getOrLoad(path, func() (*bm25.Index, error) {
		return bm25.Load(path)
	})
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}
