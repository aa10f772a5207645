package tfidf

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/forumsearch/core/internal/forumerr"
)

// File format, mirroring the bm25 package's length-prefixed binary
// convention: doc_ids list, vocabulary (term -> column), idf list, then
// the dense row-major float32 matrix.
//
//	doc_ids:    count u32, then count * string
//	vocabulary: count u32, then count * (term string, col u32)
//	idf:        count u32, then count * f64
//	matrix:     rows u32, cols u32, then rows*cols * f32

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
	if err := writeStrings(w, idx.docIDs); err != nil {
		return err
	}
	if err := writeVocabulary(w, idx.vocabulary); err != nil {
		return err
	}
	if err := writeFloat64s(w, idx.idf); err != nil {
		return err
	}
	if err := writeMatrix(w, idx.matrix, len(idx.vocabulary)); err != nil {
		return err
	}
	return w.Flush()
}

func writeStrings(w io.Writer, ss []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ss))); err != nil {
		return err
	}
	for _, s := range ss {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func writeVocabulary(w io.Writer, vocab map[string]int) error {
	terms := make([]string, 0, len(vocab))
	for term := range vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	if err := binary.Write(w, binary.LittleEndian, uint32(len(terms))); err != nil {
		return err
	}
	for _, term := range terms {
		if err := writeString(w, term); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(vocab[term])); err != nil {
			return err
		}
	}
	return nil
}

func writeFloat64s(w io.Writer, vs []float64) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vs))); err != nil {
		return err
	}
	for _, v := range vs {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func writeMatrix(w io.Writer, m [][]float32, cols int) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(cols)); err != nil {
		return err
	}
	for _, row := range m {
		for _, v := range row {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads an index previously written by Save. A truncated or
// malformed file yields an IndexCorrupt error.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	idx := New()

	docIDs, err := readStrings(r)
	if err != nil {
		return nil, forumerr.IndexCorrupt("tfidf index doc_ids truncated or malformed", err)
	}
	idx.docIDs = docIDs

	vocab, err := readVocabulary(r)
	if err != nil {
		return nil, forumerr.IndexCorrupt("tfidf index vocabulary truncated or malformed", err)
	}
	idx.vocabulary = vocab

	idf, err := readFloat64s(r)
	if err != nil {
		return nil, forumerr.IndexCorrupt("tfidf index idf truncated or malformed", err)
	}
	idx.idf = idf

	matrix, err := readMatrix(r)
	if err != nil {
		return nil, forumerr.IndexCorrupt("tfidf index matrix truncated or malformed", err)
	}
	if len(matrix) != len(idx.docIDs) {
		return nil, forumerr.IndexCorrupt("tfidf index matrix row count does not match doc_ids count", nil)
	}
	idx.matrix = matrix

	return idx, nil
}

func readStrings(r io.Reader) ([]string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readVocabulary(r io.Reader) (map[string]int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make(map[string]int, n)
	for i := uint32(0); i < n; i++ {
		term, err := readString(r)
		if err != nil {
			return nil, err
		}
		var col uint32
		if err := binary.Read(r, binary.LittleEndian, &col); err != nil {
			return nil, err
		}
		out[term] = int(col)
	}
	return out, nil
}

func readFloat64s(r io.Reader) ([]float64, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		if err := binary.Read(r, binary.LittleEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readMatrix(r io.Reader) ([][]float32, error) {
	var rows, cols uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return nil, err
	}
	out := make([][]float32, rows)
	for i := range out {
		row := make([]float32, cols)
		for j := range row {
			if err := binary.Read(r, binary.LittleEndian, &row[j]); err != nil {
				return nil, err
			}
		}
		out[i] = row
	}
	return out, nil
}
