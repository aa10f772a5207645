// Package vector implements the dense embedding k-NN index: a flat
// inner-product scan over unit-normalized rows, with an optional
// coder/hnsw-backed approximate index for large shards. The flat scan
// is the reference implementation for correctness and the only form
// ever persisted; the HNSW accelerator is rebuilt in memory on load
// and never written to disk.
package vector

import (
	"math"
	"sort"

	"github.com/coder/hnsw"
)

// Hit is a single scored result.
type Hit struct {
	DocID string
	Score float64
}

// Index is an in-memory vector index over unit-normalized rows,
// optionally accelerated by an in-memory HNSW graph above
// ApproximateThreshold rows.
type Index struct {
	docIDs  []string
	vectors [][]float32
	dim     int

	approximateThreshold int
	graph                *hnsw.Graph[int]
}

// New returns an empty index. approximateThreshold is the row count
// above which Build also constructs an in-memory HNSW accelerator for
// Score; 0 disables acceleration entirely.
func New(approximateThreshold int) *Index {
	return &Index{approximateThreshold: approximateThreshold}
}

// DocCount returns the number of vectors in the index.
func (idx *Index) DocCount() int { return len(idx.docIDs) }

// Dim returns the embedding dimensionality.
func (idx *Index) Dim() int { return idx.dim }

// Build stores docIDs and vectors in insertion order, L2-normalizing
// each row (an all-zero row remains all-zero). If the row count exceeds
// approximateThreshold, an in-memory HNSW graph is also built over the
// normalized rows to accelerate Score; it is never persisted.
func (idx *Index) Build(docIDs []string, vectors [][]float32) {
	idx.docIDs = append([]string(nil), docIDs...)
	idx.vectors = make([][]float32, len(vectors))
	if len(vectors) > 0 {
		idx.dim = len(vectors[0])
	}
	for i, v := range vectors {
		idx.vectors[i] = normalize(v)
	}
	idx.graph = nil

	if idx.approximateThreshold > 0 && len(idx.docIDs) > idx.approximateThreshold {
		graph := hnsw.NewGraph[int]()
		graph.Distance = hnsw.CosineDistance
		for i, v := range idx.vectors {
			graph.Add(hnsw.MakeNode(i, v))
		}
		idx.graph = graph
	}
}

// Score L2-normalizes query and returns up to min(topK, N) hits ranked
// by inner product (cosine similarity on unit vectors) descending. When
// an HNSW accelerator is present it is used for an approximate search;
// otherwise a flat scan is performed.
func (idx *Index) Score(query []float32, topK int) []Hit {
	if len(idx.docIDs) == 0 || len(query) == 0 {
		return []Hit{}
	}

	q := normalize(query)
	k := topK
	if k > len(idx.docIDs) {
		k = len(idx.docIDs)
	}
	if k < 0 {
		k = 0
	}
	if k == 0 {
		return []Hit{}
	}

	if idx.graph != nil {
		return idx.scoreApproximate(q, k)
	}
	return idx.scoreFlat(q, k)
}

func (idx *Index) scoreFlat(q []float32, k int) []Hit {
	hits := make([]Hit, len(idx.docIDs))
	for i, docID := range idx.docIDs {
		hits[i] = Hit{DocID: docID, Score: dot(q, idx.vectors[i])}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	return hits[:k]
}

func (idx *Index) scoreApproximate(q []float32, k int) []Hit {
	nodes := idx.graph.Search(q, k)
	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		if node.Key < 0 || node.Key >= len(idx.docIDs) {
			continue
		}
		hits = append(hits, Hit{DocID: idx.docIDs[node.Key], Score: dot(q, idx.vectors[node.Key])})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	return hits
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	copy(out, v)
	if sumSq == 0 {
		return out
	}
	inv := float32(1.0 / math.Sqrt(sumSq))
	for i := range out {
		out[i] *= inv
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
