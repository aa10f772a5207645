package bm25

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/forumsearch/core/internal/forumerr"
)

// File format: a header record, then doc_lengths, then postings. Every
// string is length-prefixed (u32 byte length, then UTF-8 bytes); every
// list is length-prefixed (u32 element count). Readers tolerate any
// term ordering within postings.
//
//	header:       k1 f64, b f64, doc_count u64, avg_doc_len f64
//	doc_lengths:  count u32, then count * (doc_id string, len u32)
//	postings:     count u32, then count * (term string, df u32, then df * (doc_id string, tf u32))

// Save writes the index to path, creating parent directories as needed.
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
	if err := writeHeader(w, idx); err != nil {
		return err
	}
	if err := writeDocLengths(w, idx.docLengths); err != nil {
		return err
	}
	if err := writePostings(w, idx.postings); err != nil {
		return err
	}
	return w.Flush()
}

func writeHeader(w io.Writer, idx *Index) error {
	if err := binary.Write(w, binary.LittleEndian, idx.K1); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, idx.B); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(idx.docCount)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, idx.avgDocLen)
}

func writeDocLengths(w io.Writer, lengths map[string]uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(lengths))); err != nil {
		return err
	}
	for docID, length := range lengths {
		if err := writeString(w, docID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, length); err != nil {
			return err
		}
	}
	return nil
}

func writePostings(w io.Writer, postings map[string]map[string]uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(postings))); err != nil {
		return err
	}
	for term, byDoc := range postings {
		if err := writeString(w, term); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(byDoc))); err != nil {
			return err
		}
		for docID, tf := range byDoc {
			if err := writeString(w, docID); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, tf); err != nil {
				return err
			}
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

// Load reads an index previously written by Save. A truncated or
// malformed file yields an IndexCorrupt error.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	idx := &Index{postings: make(map[string]map[string]uint32), docLengths: make(map[string]uint32)}

	if err := readHeader(r, idx); err != nil {
		return nil, forumerr.IndexCorrupt("bm25 index header truncated or malformed", err)
	}
	if err := readDocLengths(r, idx); err != nil {
		return nil, forumerr.IndexCorrupt("bm25 index doc_lengths truncated or malformed", err)
	}
	if err := readPostings(r, idx); err != nil {
		return nil, forumerr.IndexCorrupt("bm25 index postings truncated or malformed", err)
	}
	return idx, nil
}

func readHeader(r io.Reader, idx *Index) error {
	if err := binary.Read(r, binary.LittleEndian, &idx.K1); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &idx.B); err != nil {
		return err
	}
	var docCount uint64
	if err := binary.Read(r, binary.LittleEndian, &docCount); err != nil {
		return err
	}
	idx.docCount = int(docCount)
	return binary.Read(r, binary.LittleEndian, &idx.avgDocLen)
}

func readDocLengths(r io.Reader, idx *Index) error {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		docID, err := readString(r)
		if err != nil {
			return err
		}
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return err
		}
		idx.docLengths[docID] = length
	}
	return nil
}

func readPostings(r io.Reader, idx *Index) error {
	var termCount uint32
	if err := binary.Read(r, binary.LittleEndian, &termCount); err != nil {
		return err
	}
	for i := uint32(0); i < termCount; i++ {
		term, err := readString(r)
		if err != nil {
			return err
		}
		var df uint32
		if err := binary.Read(r, binary.LittleEndian, &df); err != nil {
			return err
		}
		byDoc := make(map[string]uint32, df)
		for j := uint32(0); j < df; j++ {
			docID, err := readString(r)
			if err != nil {
				return err
			}
			var tf uint32
			if err := binary.Read(r, binary.LittleEndian, &tf); err != nil {
				return err
			}
			byDoc[docID] = tf
		}
		idx.postings[term] = byDoc
	}
	return nil
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
