package build

import (
	"testing"
	"time"

	"github.com/forumsearch/core/internal/autocomplete"
	"github.com/forumsearch/core/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutocompleteBuilderBuildSubredditWritesTrie(t *testing.T) {
	st := newFakeStore()
	st.posts["golang"] = []store.RawPost{
		{ID: "p1", Subreddit: "golang", Title: "goroutines are cheap", CreatedUTC: time.Now().Unix()},
		{ID: "p2", Subreddit: "golang", Title: "goroutines leak memory", CreatedUTC: time.Now().Unix()},
	}

	b := NewAutocompleteBuilder(st, testSettings(t), NewProgress())
	summary, err := b.BuildSubreddit("golang")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DocCount)
	assert.FileExists(t, summary.FilePath)

	trie, err := autocomplete.LoadTrie(summary.FilePath)
	require.NoError(t, err)
	hits := trie.Search("goroutine", 10)
	require.NotEmpty(t, hits)
}

func TestAutocompleteBuilderEmptySubredditSkipsWrite(t *testing.T) {
	st := newFakeStore()
	b := NewAutocompleteBuilder(st, testSettings(t), NewProgress())

	summary, err := b.BuildSubreddit("nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.DocCount)
	assert.Empty(t, summary.FilePath)
}

func TestAutocompleteBuilderBuildAllWritesPerSubredditAndGlobalTries(t *testing.T) {
	st := newFakeStore()
	st.assignments["golang"] = "shard_golang"
	st.assignments["rust"] = "shard_misc"
	st.posts["golang"] = []store.RawPost{{ID: "p1", Subreddit: "golang", Title: "channels"}}
	st.posts["rust"] = []store.RawPost{{ID: "p2", Subreddit: "rust", Title: "borrow checker"}}

	b := NewAutocompleteBuilder(st, testSettings(t), NewProgress())
	summaries, err := b.BuildAll()
	require.NoError(t, err)
	require.Len(t, summaries, 3) // golang, rust, all

	labels := make(map[string]bool)
	for _, s := range summaries {
		labels[s.ShardID] = true
	}
	assert.True(t, labels["golang"])
	assert.True(t, labels["rust"])
	assert.True(t, labels["all"])
}
