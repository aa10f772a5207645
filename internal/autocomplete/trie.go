// Package autocomplete implements the weighted prefix trie used for
// search-box suggestions, plus a label-keyed suggester that loads
// persisted tries on demand.
package autocomplete

import (
	"container/heap"
	"strings"
)

// Suggestion is a single ranked autocomplete result.
type Suggestion struct {
	Term  string
	Score float64
}

type trieNode struct {
	children   map[rune]*trieNode
	isTerminal bool
	term       string
	score      float64
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// Trie is a weighted prefix trie supporting top-k retrieval by score.
type Trie struct {
	root *trieNode
	size int
}

// NewTrie returns an empty trie.
func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

// Size returns the number of distinct terms stored.
func (t *Trie) Size() int { return t.size }

// Insert adds term with score. If the term already exists its score is
// updated to the maximum of the old and new values.
func (t *Trie) Insert(term string, score float64) {
	lower := strings.ToLower(term)
	node := t.root
	for _, ch := range lower {
		child, ok := node.children[ch]
		if !ok {
			child = newTrieNode()
			node.children[ch] = child
		}
		node = child
	}

	if !node.isTerminal {
		t.size++
	}
	node.isTerminal = true
	node.term = lower
	if score > node.score {
		node.score = score
	}
}

// Search walks to the node for prefix (the empty prefix matches every
// term) and returns up to topK terminal descendants ranked by score
// descending. Returns an empty slice, never nil, when the prefix is
// absent.
func (t *Trie) Search(prefix string, topK int) []Suggestion {
	node := t.root
	for _, ch := range strings.ToLower(prefix) {
		child, ok := node.children[ch]
		if !ok {
			return []Suggestion{}
		}
		node = child
	}

	if topK <= 0 {
		return []Suggestion{}
	}

	h := &scoreHeap{}
	collect(node, h, topK)

	out := make([]Suggestion, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		item := heap.Pop(h).(Suggestion)
		out[i] = item
	}
	return out
}

func collect(node *trieNode, h *scoreHeap, k int) {
	if node.isTerminal {
		if h.Len() < k {
			heap.Push(h, Suggestion{Term: node.term, Score: node.score})
		} else if node.score > (*h)[0].Score {
			heap.Pop(h)
			heap.Push(h, Suggestion{Term: node.term, Score: node.score})
		}
	}
	for _, child := range node.children {
		collect(child, h, k)
	}
}

// scoreHeap is a min-heap of Suggestion ordered by Score, used to keep
// only the top-k terminals seen so far during a DFS.
type scoreHeap []Suggestion

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(Suggestion)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
