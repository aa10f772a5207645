package build

import "context"

// Encoder turns text into dense embeddings. It is the one external
// boundary this repository does not implement — sentence-embedding
// model choice is out of scope — so the vector builder depends only on
// this interface, constructed lazily by the caller on first build.
type Encoder interface {
	// Encode returns one embedding per input text, in the same order.
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	// Dim returns the embedding dimensionality.
	Dim() int
}
