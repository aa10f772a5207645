package vector

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/coder/hnsw"
	"github.com/forumsearch/core/internal/forumerr"
)

// File format: a native vector payload (row-major float32, length-
// prefixed by row count and dim) plus a sidecar doc_ids record. Vector
// count and doc_ids count must match on load, enforced as IndexCorrupt.
//
//	vectors: rows u32, dim u32, then rows*dim * f32
//	doc_ids: count u32, then count * string

// Save persists the index to path.
func (idx *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(idx.vectors))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(idx.dim)); err != nil {
		return err
	}
	for _, v := range idx.vectors {
		for _, x := range v {
			if err := binary.Write(w, binary.LittleEndian, x); err != nil {
				return err
			}
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(idx.docIDs))); err != nil {
		return err
	}
	for _, docID := range idx.docIDs {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(docID))); err != nil {
			return err
		}
		if _, err := w.Write([]byte(docID)); err != nil {
			return err
		}
	}

	return w.Flush()
}

// Load reads an index previously written by Save. A truncated/malformed
// file, or a mismatch between vector count and doc-id count, yields an
// IndexCorrupt error. The HNSW accelerator (if any) is not persisted;
// callers that want acceleration back must call Build again after Load,
// or rely on Load's automatic rebuild when approximateThreshold is set.
func Load(path string, approximateThreshold int) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var rows, dim uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, forumerr.IndexCorrupt("vector index header truncated or malformed", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, forumerr.IndexCorrupt("vector index header truncated or malformed", err)
	}

	vectors := make([][]float32, rows)
	for i := range vectors {
		row := make([]float32, dim)
		for j := range row {
			if err := binary.Read(r, binary.LittleEndian, &row[j]); err != nil {
				return nil, forumerr.IndexCorrupt("vector index payload truncated or malformed", err)
			}
		}
		vectors[i] = row
	}

	var idCount uint32
	if err := binary.Read(r, binary.LittleEndian, &idCount); err != nil {
		return nil, forumerr.IndexCorrupt("vector index doc_ids truncated or malformed", err)
	}
	docIDs := make([]string, idCount)
	for i := range docIDs {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, forumerr.IndexCorrupt("vector index doc_ids truncated or malformed", err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, forumerr.IndexCorrupt("vector index doc_ids truncated or malformed", err)
		}
		docIDs[i] = string(buf)
	}

	if len(docIDs) != len(vectors) {
		return nil, forumerr.IndexCorrupt("vector index vector count does not match doc_id count", nil)
	}

	idx := New(approximateThreshold)
	idx.dim = int(dim)
	idx.docIDs = docIDs
	idx.vectors = vectors // rows were already unit-normalized when saved

	if approximateThreshold > 0 && len(idx.docIDs) > approximateThreshold {
		graph := hnsw.NewGraph[int]()
		graph.Distance = hnsw.CosineDistance
		for i, v := range idx.vectors {
			graph.Add(hnsw.MakeNode(i, v))
		}
		idx.graph = graph
	}

	return idx, nil
}
