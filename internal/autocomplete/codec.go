package autocomplete

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/forumsearch/core/internal/forumerr"
)

// Persistence recursively serializes each node as:
//
//	is_terminal bool (1 byte)
//	term        string (u32-length-prefixed)
//	score       f64
//	child_count u32, then child_count * (rune i32, child node)
//
// size is not stored; it is recomputed by counting terminal nodes
// after Load, matching the reference's recompute-on-load behavior.

// Save persists the trie to path.
func (t *Trie) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeNode(w, t.root); err != nil {
		return err
	}
	return w.Flush()
}

func writeNode(w io.Writer, n *trieNode) error {
	var terminal byte
	if n.isTerminal {
		terminal = 1
	}
	if _, err := w.Write([]byte{terminal}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(n.term))); err != nil {
		return err
	}
	if _, err := w.Write([]byte(n.term)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, n.score); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(n.children))); err != nil {
		return err
	}
	for ch, child := range n.children {
		if err := binary.Write(w, binary.LittleEndian, int32(ch)); err != nil {
			return err
		}
		if err := writeNode(w, child); err != nil {
			return err
		}
	}
	return nil
}

// LoadTrie reads a trie previously written by Save. A truncated or
// malformed file yields an IndexCorrupt error.
func LoadTrie(path string) (*Trie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	root, err := readNode(r)
	if err != nil {
		return nil, forumerr.IndexCorrupt("autocomplete trie truncated or malformed", err)
	}

	t := &Trie{root: root}
	t.size = countTerminals(root)
	return t, nil
}

func readNode(r io.Reader) (*trieNode, error) {
	var terminal [1]byte
	if _, err := io.ReadFull(r, terminal[:]); err != nil {
		return nil, err
	}

	var termLen uint32
	if err := binary.Read(r, binary.LittleEndian, &termLen); err != nil {
		return nil, err
	}
	termBuf := make([]byte, termLen)
	if _, err := io.ReadFull(r, termBuf); err != nil {
		return nil, err
	}

	var score float64
	if err := binary.Read(r, binary.LittleEndian, &score); err != nil {
		return nil, err
	}

	var childCount uint32
	if err := binary.Read(r, binary.LittleEndian, &childCount); err != nil {
		return nil, err
	}

	node := &trieNode{
		children:   make(map[rune]*trieNode, childCount),
		isTerminal: terminal[0] == 1,
		term:       string(termBuf),
		score:      score,
	}
	for i := uint32(0); i < childCount; i++ {
		var ch int32
		if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
			return nil, err
		}
		child, err := readNode(r)
		if err != nil {
			return nil, err
		}
		node.children[rune(ch)] = child
	}
	return node, nil
}

func countTerminals(n *trieNode) int {
	count := 0
	if n.isTerminal {
		count = 1
	}
	for _, child := range n.children {
		count += countTerminals(child)
	}
	return count
}
