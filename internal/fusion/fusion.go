// Package fusion combines ranked hits from the bm25, tfidf, and vector
// indexes into a single ranked list, via either a weighted linear
// combination of min-max normalised scores or reciprocal rank fusion.
package fusion

import "sort"

// Hit is a raw scored result from a single source index, tagged with
// the shard it came from.
type Hit struct {
	DocID   string
	Score   float64
	ShardID string
}

// ScoredHit is a fused result, retaining each source's normalised
// contribution for explainability.
type ScoredHit struct {
	DocID       string
	Score       float64
	ShardID     string
	BM25Score   float64
	TFIDFScore  float64
	VectorScore float64
}

// Weights controls the linear-combination blend. The zero value is
// invalid; use DefaultWeights.
type Weights struct {
	BM25   float64
	TFIDF  float64
	Vector float64
}

// DefaultWeights matches the reference blend: BM25 dominant, TF-IDF
// and vector contributing equally as secondary signals.
var DefaultWeights = Weights{BM25: 0.7, TFIDF: 0.15, Vector: 0.15}

// LinearCombination min-max normalises each input list's scores to
// [0,1] independently (a list where every score is equal maps entirely
// to 1.0; an empty list contributes nothing), then sums the weighted
// normalised scores per doc_id across the lists that contain it.
// Results are sorted by fused score descending, ties broken by doc_id
// ascending for a deterministic order, and truncated to topK.
func LinearCombination(bm25Hits, tfidfHits, vectorHits []Hit, weights Weights, topK int) []ScoredHit {
	bm25Norm := minMaxNormalize(bm25Hits)
	tfidfNorm := minMaxNormalize(tfidfHits)
	vectorNorm := minMaxNormalize(vectorHits)

	shardOf := make(map[string]string)
	recordShards(shardOf, bm25Hits)
	recordShards(shardOf, tfidfHits)
	recordShards(shardOf, vectorHits)

	seen := make(map[string]struct{})
	var docIDs []string
	for id := range bm25Norm {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			docIDs = append(docIDs, id)
		}
	}
	for id := range tfidfNorm {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			docIDs = append(docIDs, id)
		}
	}
	for id := range vectorNorm {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			docIDs = append(docIDs, id)
		}
	}

	merged := make([]ScoredHit, 0, len(docIDs))
	for _, id := range docIDs {
		b := bm25Norm[id]
		t := tfidfNorm[id]
		v := vectorNorm[id]
		fused := b*weights.BM25 + t*weights.TFIDF + v*weights.Vector
		merged = append(merged, ScoredHit{
			DocID:       id,
			Score:       fused,
			ShardID:     shardOf[id],
			BM25Score:   b,
			TFIDFScore:  t,
			VectorScore: v,
		})
	}

	sortByScoreThenID(merged)
	return truncate(merged, topK)
}

// DefaultRRFConstant is the reciprocal rank fusion smoothing constant.
const DefaultRRFConstant = 60

// ReciprocalRankFusion merges an arbitrary number of ranked lists:
// score(d) = Σ 1/(k + rank_i(d)), where rank_i is the 1-based rank of
// d in list i and lists not containing d contribute 0. Results are
// sorted by fused score descending, ties broken by doc_id ascending,
// and truncated to topK.
func ReciprocalRankFusion(k int, topK int, lists ...[]Hit) []ScoredHit {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	shardOf := make(map[string]string)
	scores := make(map[string]float64)
	var order []string
	seen := make(map[string]struct{})

	for _, list := range lists {
		for i, hit := range list {
			rank := i + 1
			if _, ok := scores[hit.DocID]; !ok {
				scores[hit.DocID] = 0
			}
			scores[hit.DocID] += 1.0 / float64(k+rank)
			if _, ok := shardOf[hit.DocID]; !ok {
				shardOf[hit.DocID] = hit.ShardID
			}
			if _, ok := seen[hit.DocID]; !ok {
				seen[hit.DocID] = struct{}{}
				order = append(order, hit.DocID)
			}
		}
	}

	merged := make([]ScoredHit, 0, len(order))
	for _, id := range order {
		merged = append(merged, ScoredHit{
			DocID:   id,
			Score:   scores[id],
			ShardID: shardOf[id],
		})
	}

	sortByScoreThenID(merged)
	return truncate(merged, topK)
}

func minMaxNormalize(hits []Hit) map[string]float64 {
	out := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return out
	}

	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}

	span := hi - lo
	for _, h := range hits {
		if span == 0 {
			out[h.DocID] = 1.0
			continue
		}
		out[h.DocID] = (h.Score - lo) / span
	}
	return out
}

func recordShards(shardOf map[string]string, hits []Hit) {
	for _, h := range hits {
		if _, ok := shardOf[h.DocID]; !ok {
			shardOf[h.DocID] = h.ShardID
		}
	}
}

func sortByScoreThenID(hits []ScoredHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
}

func truncate(hits []ScoredHit, topK int) []ScoredHit {
	if topK < 0 || topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK]
}
