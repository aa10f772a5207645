// Package bm25 implements the Okapi BM25 inverted index: build from a
// batch of tokenized documents, score a query, and persist/load to a
// length-prefixed binary file.
package bm25

import (
	"math"
	"sort"
)

// DefaultK1 and DefaultB are the reference BM25 parameter values.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Hit is a single scored result.
type Hit struct {
	DocID string
	Score float64
}

// Index is an in-memory BM25 inverted index. Tokens are assumed already
// canonicalized by the caller; Index performs no further normalization.
type Index struct {
	K1 float64
	B  float64

	postings   map[string]map[string]uint32 // term -> doc_id -> tf
	docLengths map[string]uint32
	docCount   int
	avgDocLen  float64
}

// New returns an empty index with the given BM25 parameters.
func New(k1, b float64) *Index {
	return &Index{
		K1:         k1,
		B:          b,
		postings:   make(map[string]map[string]uint32),
		docLengths: make(map[string]uint32),
	}
}

// DocCount returns the number of documents the index was built from.
func (idx *Index) DocCount() int { return idx.docCount }

// AvgDocLen returns the average document length (0 if the index is empty).
func (idx *Index) AvgDocLen() float64 { return idx.avgDocLen }

// Build replaces the index's contents from a batch of {doc_id -> tokens}.
func (idx *Index) Build(documents map[string][]string) {
	idx.postings = make(map[string]map[string]uint32)
	idx.docLengths = make(map[string]uint32, len(documents))

	var totalLen int
	for docID, tokens := range documents {
		idx.docLengths[docID] = uint32(len(tokens))
		totalLen += len(tokens)

		termFreq := make(map[string]uint32)
		for _, tok := range tokens {
			termFreq[tok]++
		}
		for term, tf := range termFreq {
			byDoc, ok := idx.postings[term]
			if !ok {
				byDoc = make(map[string]uint32)
				idx.postings[term] = byDoc
			}
			byDoc[docID] = tf
		}
	}

	idx.docCount = len(idx.docLengths)
	if idx.docCount > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.docCount)
	} else {
		idx.avgDocLen = 0
	}
}

// Score ranks documents against queryTokens using Okapi BM25 and returns
// up to topK hits descending by score. An empty index or empty query
// yields an empty (never error) result.
func (idx *Index) Score(queryTokens []string, topK int) []Hit {
	if len(queryTokens) == 0 || idx.docCount == 0 {
		return []Hit{}
	}

	scores := make(map[string]float64)
	order := make([]string, 0)
	seen := make(map[string]struct{})

	for _, term := range queryTokens {
		posting := idx.postings[term]
		if len(posting) == 0 {
			continue
		}

		df := len(posting)
		idf := math.Log(1.0 + (float64(idx.docCount)-float64(df)+0.5)/(float64(df)+0.5))

		for docID, tf := range posting {
			dl := idx.docLengths[docID]
			var norm float64
			if idx.avgDocLen > 0 {
				norm = (1 - idx.B) + idx.B*(float64(dl)/idx.avgDocLen)
			} else {
				norm = 1.0
			}
			contrib := idf * (float64(tf) * (idx.K1 + 1)) / (float64(tf) + idx.K1*norm)
			if _, ok := seen[docID]; !ok {
				seen[docID] = struct{}{}
				order = append(order, docID)
			}
			scores[docID] += contrib
		}
	}

	hits := make([]Hit, len(order))
	for i, docID := range order {
		hits[i] = Hit{DocID: docID, Score: scores[docID]}
	}

	// Tie-break by doc_id so results are stable across runs regardless of
	// Go's randomized map iteration order.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})

	if topK < 0 {
		topK = 0
	}
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
