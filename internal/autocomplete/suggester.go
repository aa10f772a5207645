package autocomplete

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const globalLabel = "all"

// Suggester loads per-label tries on demand from dir and caches them
// in-process, keyed by label. Concurrent Suggest calls for the same
// label load the trie at most once: the cache is guarded by a mutex,
// and a second goroutine that loses the race to load a label blocks
// on the same mutex and observes the already-populated entry.
type Suggester struct {
	dir        string
	maxResults int

	mu    sync.Mutex
	cache map[string]*Trie // nil value means "checked, file absent"
}

// NewSuggester returns a suggester that reads trie files from dir
// (one file per label plus "all"), defaulting to maxResults
// suggestions when a caller does not specify topK.
func NewSuggester(dir string, maxResults int) *Suggester {
	return &Suggester{
		dir:        dir,
		maxResults: maxResults,
		cache:      make(map[string]*Trie),
	}
}

// Suggest returns up to topK suggestions for prefix. If subreddit is
// non-empty its trie is tried first; on a missing file (or an empty
// subreddit) the suggester falls back to the global "all" trie. If
// topK <= 0, maxResults is used.
func (s *Suggester) Suggest(prefix, subreddit string, topK int) []Suggestion {
	if topK <= 0 {
		topK = s.maxResults
	}

	label := globalLabel
	if trimmed := strings.ToLower(strings.TrimSpace(subreddit)); trimmed != "" {
		label = trimmed
	}

	trie := s.load(label)
	if trie == nil && label != globalLabel {
		trie = s.load(globalLabel)
	}
	if trie == nil {
		return []Suggestion{}
	}
	return trie.Search(prefix, topK)
}

func (s *Suggester) load(label string) *Trie {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trie, ok := s.cache[label]; ok {
		return trie
	}

	path := filepath.Join(s.dir, label+".bin")
	if _, err := os.Stat(path); err != nil {
		s.cache[label] = nil
		return nil
	}

	trie, err := LoadTrie(path)
	if err != nil {
		s.cache[label] = nil
		return nil
	}
	s.cache[label] = trie
	return trie
}

// Invalidate drops a cached label so the next Suggest call re-reads it
// from disk, used after a rebuild replaces a trie file.
func (s *Suggester) Invalidate(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, strings.ToLower(strings.TrimSpace(label)))
}
