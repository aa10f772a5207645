package autocomplete

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrie(t *testing.T, dir, label string, terms map[string]float64) {
	t.Helper()
	tr := NewTrie()
	for term, score := range terms {
		tr.Insert(term, score)
	}
	require.NoError(t, tr.Save(filepath.Join(dir, label+".bin")))
}

func TestSuggestUsesSubredditTrie(t *testing.T) {
	dir := t.TempDir()
	writeTrie(t, dir, "golang", map[string]float64{"goroutine": 1})
	writeTrie(t, dir, globalLabel, map[string]float64{"global term": 1})

	s := NewSuggester(dir, 10)
	hits := s.Suggest("goro", "golang", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "goroutine", hits[0].Term)
}

func TestSuggestFallsBackToGlobalWhenSubredditMissing(t *testing.T) {
	dir := t.TempDir()
	writeTrie(t, dir, globalLabel, map[string]float64{"golang": 1})

	s := NewSuggester(dir, 10)
	hits := s.Suggest("go", "doesnotexist", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "golang", hits[0].Term)
}

func TestSuggestReturnsEmptyWhenNoTrieFound(t *testing.T) {
	s := NewSuggester(t.TempDir(), 10)
	assert.Empty(t, s.Suggest("go", "", 10))
}

func TestSuggestCachesLoadedTrie(t *testing.T) {
	dir := t.TempDir()
	writeTrie(t, dir, globalLabel, map[string]float64{"golang": 1})

	s := NewSuggester(dir, 10)
	first := s.load(globalLabel)
	require.NotNil(t, first)
	second := s.load(globalLabel)
	assert.Same(t, first, second)
}

func TestInvalidateForcesReload(t *testing.T) {
	dir := t.TempDir()
	writeTrie(t, dir, globalLabel, map[string]float64{"golang": 1})

	s := NewSuggester(dir, 10)
	first := s.load(globalLabel)
	s.Invalidate(globalLabel)
	second := s.load(globalLabel)
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
}
