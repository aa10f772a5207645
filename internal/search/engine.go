package search

import (
	"context"

	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/forumerr"
	"github.com/forumsearch/core/internal/fusion"
	"golang.org/x/sync/errgroup"
)

// FusionMode selects how per-index-type hit lists are combined when a
// query isn't scoped to a single index type.
type FusionMode string

const (
	FusionLinear FusionMode = "linear"
	FusionRRF    FusionMode = "rrf"
)

// Request is one hybrid or single-index search query.
type Request struct {
	Query     string
	Subreddit string
	// IndexType restricts the query to one source ("bm25", "tfidf",
	// "vector"); empty means hybrid across all three.
	IndexType string
	TopK      int
	Fusion    FusionMode
}

// Engine ties the three per-index-type searchers together behind
// spec.md §4.6/§4.7's query -> route -> score -> merge -> fuse
// pipeline.
type Engine struct {
	bm25     *BM25Searcher
	tfidf    *TFIDFSearcher
	vector   *VectorSearcher
	settings *config.Settings
}

// NewEngine returns an Engine over the three constructed searchers.
func NewEngine(bm25 *BM25Searcher, tfidf *TFIDFSearcher, vector *VectorSearcher, settings *config.Settings) *Engine {
	return &Engine{bm25: bm25, tfidf: tfidf, vector: vector, settings: settings}
}

// Search executes req and returns fused, ranked hits.
func (e *Engine) Search(ctx context.Context, req Request) ([]fusion.ScoredHit, error) {
	if len(req.Query) == 0 {
		return nil, forumerr.InvalidInput("query must not be empty")
	}
	if e.settings.Search.MaxQueryLength > 0 && len(req.Query) > e.settings.Search.MaxQueryLength {
		return nil, forumerr.InvalidInput("query exceeds max_query_length")
	}

	topKPerIndex := e.settings.Search.TopKPerIndex
	if topKPerIndex <= 0 {
		topKPerIndex = 100
	}

	if req.IndexType != "" {
		hits, err := e.searchSingle(ctx, req, topKPerIndex)
		if err != nil {
			return nil, err
		}
		return toScoredHits(hits, req.IndexType), nil
	}

	var bm25Hits, tfidfHits, vectorHits []fusion.Hit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		bm25Hits, err = e.bm25.Search(gctx, req.Query, req.Subreddit, topKPerIndex)
		return err
	})
	g.Go(func() (err error) {
		tfidfHits, err = e.tfidf.Search(gctx, req.Query, req.Subreddit, topKPerIndex)
		return err
	})
	g.Go(func() (err error) {
		vectorHits, err = e.vector.Search(gctx, req.Query, req.Subreddit, topKPerIndex)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.settings.Search.DefaultPageSize
	}

	if req.Fusion == FusionRRF {
		return fusion.ReciprocalRankFusion(e.settings.Search.RRFConstant, topK, bm25Hits, tfidfHits, vectorHits), nil
	}

	weights := fusion.Weights{
		BM25:   e.settings.Search.BM25Weight,
		TFIDF:  e.settings.Search.TFIDFWeight,
		Vector: e.settings.Search.VectorWeight,
	}
	return fusion.LinearCombination(bm25Hits, tfidfHits, vectorHits, weights, topK), nil
}

func (e *Engine) searchSingle(ctx context.Context, req Request, topKPerIndex int) ([]fusion.Hit, error) {
	switch req.IndexType {
	case "bm25":
		return e.bm25.Search(ctx, req.Query, req.Subreddit, topKPerIndex)
	case "tfidf":
		return e.tfidf.Search(ctx, req.Query, req.Subreddit, topKPerIndex)
	case "vector":
		return e.vector.Search(ctx, req.Query, req.Subreddit, topKPerIndex)
	default:
		return nil, forumerr.InvalidInput("unknown index_type: " + req.IndexType)
	}
}

func toScoredHits(hits []fusion.Hit, indexType string) []fusion.ScoredHit {
	out := make([]fusion.ScoredHit, len(hits))
	for i, h := range hits {
		sh := fusion.ScoredHit{DocID: h.DocID, Score: h.Score, ShardID: h.ShardID}
		switch indexType {
		case "bm25":
			sh.BM25Score = h.Score
		case "tfidf":
			sh.TFIDFScore = h.Score
		case "vector":
			sh.VectorScore = h.Score
		}
		out[i] = sh
	}
	return out
}
