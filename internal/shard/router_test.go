package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssignments map[string]string

func (f fakeAssignments) ShardFor(subreddit string) (string, bool) {
	sid, ok := f[subreddit]
	return sid, ok
}

type fakeIndex struct {
	active map[string]bool // "indexType/shardID" -> active
}

func key(indexType, shardID string) string { return indexType + "/" + shardID }

func (f fakeIndex) HasActiveIndex(indexType, shardID string) (bool, error) {
	return f.active[key(indexType, shardID)], nil
}

func (f fakeIndex) ActiveShards(indexType string) ([]string, error) {
	var out []string
	for k, v := range f.active {
		if !v {
			continue
		}
		for i := 0; i < len(k); i++ {
			if k[i] == '/' {
				if k[:i] == indexType {
					out = append(out, k[i+1:])
				}
				break
			}
		}
	}
	return out, nil
}

func TestResolveWithSubredditUsesPlannedShard(t *testing.T) {
	assignments := fakeAssignments{"golang": "shard_golang"}
	idx := fakeIndex{active: map[string]bool{key("bm25", "shard_golang"): true}}
	r := NewRouter(assignments, idx)

	shards, err := r.Resolve("golang", "bm25")
	require.NoError(t, err)
	assert.Equal(t, []string{"shard_golang"}, shards)
}

func TestResolveFallsBackToLegacyShard(t *testing.T) {
	assignments := fakeAssignments{"golang": "shard_misc"}
	idx := fakeIndex{active: map[string]bool{key("bm25", "shard_golang"): true}}
	r := NewRouter(assignments, idx)

	shards, err := r.Resolve("golang", "bm25")
	require.NoError(t, err)
	assert.Equal(t, []string{"shard_golang"}, shards)
}

func TestResolveReturnsEmptyWhenNoActiveIndex(t *testing.T) {
	assignments := fakeAssignments{"golang": "shard_misc"}
	idx := fakeIndex{active: map[string]bool{}}
	r := NewRouter(assignments, idx)

	shards, err := r.Resolve("golang", "bm25")
	require.NoError(t, err)
	assert.Empty(t, shards)
}

func TestResolveWithoutSubredditReturnsAllActiveShards(t *testing.T) {
	idx := fakeIndex{active: map[string]bool{
		key("bm25", "shard_a"): true,
		key("bm25", "shard_b"): true,
		key("vector", "shard_c"): true,
	}}
	r := NewRouter(fakeAssignments{}, idx)

	shards, err := r.Resolve("", "bm25")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"shard_a", "shard_b"}, shards)
}
