// Package staticembed provides a hash-based default embedder: no
// network calls, no model download, deterministic across runs. It
// implements both internal/build.Encoder (batch, for the vector
// builder) and internal/search.QueryEncoder (single-text, for query
// time), which is the sentence-embedding model boundary this
// repository does not otherwise implement — operators wanting real
// semantic embeddings supply their own Encoder/QueryEncoder.
package staticembed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Encoder is a deterministic bag-of-words-plus-character-trigram
// embedder: each token and each trigram hashes into one of dim
// buckets, weighted and then L2-normalized.
type Encoder struct {
	dim int
}

const (
	tokenWeight   = 0.7
	trigramWeight = 0.3
	trigramSize   = 3
)

// New returns an Encoder producing dim-dimensional vectors.
func New(dim int) *Encoder {
	return &Encoder{dim: dim}
}

// Dim implements internal/build.Encoder.
func (e *Encoder) Dim() int { return e.dim }

// Encode implements internal/build.Encoder, embedding each text
// independently in input order.
func (e *Encoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

// EncodeQuery implements internal/search.QueryEncoder.
func (e *Encoder) EncodeQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *Encoder) embed(text string) []float32 {
	vec := make([]float32, e.dim)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vec
	}

	for _, tok := range tokenize(trimmed) {
		vec[hashToIndex(tok, e.dim)] += tokenWeight
	}
	normalized := normalizeForTrigrams(trimmed)
	for _, tri := range trigrams(normalized, trigramSize) {
		vec[hashToIndex(tri, e.dim)] += trigramWeight
	}

	return l2Normalize(vec)
}

func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func normalizeForTrigrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trigrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	out := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		out = append(out, text[i:i+n])
	}
	return out
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
