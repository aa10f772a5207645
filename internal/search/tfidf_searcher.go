package search

import (
	"context"

	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/fusion"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/tfidf"
)

// TFIDFSearcher mirrors BM25Searcher over the TF-IDF index type.
type TFIDFSearcher struct {
	store        Store
	router       *shard.Router
	settings     *config.Settings
	preprocessor TextPreprocessor
	cache        *loadCache[*tfidf.Index]
}

// NewTFIDFSearcher returns a searcher backed by st/router, tokenizing
// queries via preprocessor and caching up to cacheSize loaded indexes.
func NewTFIDFSearcher(st Store, router *shard.Router, settings *config.Settings, preprocessor TextPreprocessor, cacheSize int) *TFIDFSearcher {
	return &TFIDFSearcher{
		store:        st,
		router:       router,
		settings:     settings,
		preprocessor: preprocessor,
		cache:        newLoadCache[*tfidf.Index](cacheSize),
	}
}

// Search scores query against every active shard resolved for
// subreddit, merging and truncating to topK.
func (s *TFIDFSearcher) Search(ctx context.Context, query, subreddit string, topK int) ([]fusion.Hit, error) {
	tokens := s.preprocessor.Tokenize(query)
	if len(tokens) == 0 {
		return []fusion.Hit{}, nil
	}

	shardIDs, err := s.router.Resolve(subreddit, "tfidf")
	if err != nil {
		return nil, err
	}

	hits, err := fanOutShards(ctx, shardIDs, s.settings.Search.MaxConcurrentShards, func(shardID string) ([]fusion.Hit, error) {
		idx, ok, err := s.loadShard(shardID)
		if err != nil {
			if skip, propagate := skipShardOnLoadError("tfidf", shardID, err); skip {
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

func (s *TFIDFSearcher) loadShard(shardID string) (*tfidf.Index, bool, error) {
	active, err := s.store.GetActive("tfidf", shardID)
	if err != nil {
		return nil, false, err
	}
	if active == nil {
		return nil, false, nil
	}

	path := s.settings.IndexFile("tfidf", shardID, active.Version, "index.bin")
	idx, err := s.cache.getOrLoad(path, func() (*tfidf.Index, error) {
		return tfidf.Load(path)
	})
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}
