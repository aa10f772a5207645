package search

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forumsearch/core/internal/bm25"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/store"
	"github.com/forumsearch/core/internal/tfidf"
	"github.com/forumsearch/core/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActiveStore struct {
	active map[string]*store.IndexVersion // "<type>/<shard>" -> version
	loads  int
}

func activeKey(indexType, shardID string) string { return indexType + "/" + shardID }

func (f *fakeActiveStore) GetActive(indexType, shardID string) (*store.IndexVersion, error) {
	f.loads++
	return f.active[activeKey(indexType, shardID)], nil
}

type staticAssignments map[string]string

func (s staticAssignments) ShardFor(subreddit string) (string, bool) {
	sid, ok := s[strings.ToLower(subreddit)]
	return sid, ok
}

type staticActiveIndex map[string][]string // indexType -> shard ids

func (s staticActiveIndex) HasActiveIndex(indexType, shardID string) (bool, error) {
	for _, sid := range s[indexType] {
		if sid == shardID {
			return true, nil
		}
	}
	return false, nil
}

func (s staticActiveIndex) ActiveShards(indexType string) ([]string, error) {
	return s[indexType], nil
}

type splitPreprocessor struct{}

func (splitPreprocessor) Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func testConfig(t *testing.T) *config.Settings {
	t.Helper()
	s := config.New()
	s.Storage.DataDir = t.TempDir()
	s.Search.MaxConcurrentShards = 4
	return s
}

func TestBM25SearcherScoresAndMergesShards(t *testing.T) {
	settings := testConfig(t)

	idx := bm25.New(1.2, 0.75)
	idx.Build(map[string][]string{
		"p1": {"go", "concurrency", "patterns"},
		"p2": {"rust", "ownership"},
	})
	path := settings.IndexFile("bm25", "shard_golang", 1, "index.bin")
	require.NoError(t, idx.Save(path))

	st := &fakeActiveStore{active: map[string]*store.IndexVersion{
		activeKey("bm25", "shard_golang"): {Version: 1},
	}}
	router := shard.NewRouter(staticAssignments{"golang": "shard_golang"}, staticActiveIndex{"bm25": {"shard_golang"}})

	searcher := NewBM25Searcher(st, router, settings, splitPreprocessor{}, 8)
	hits, err := searcher.Search(context.Background(), "go concurrency", "golang", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].DocID)
	assert.Equal(t, "shard_golang", hits[0].ShardID)
}

func TestBM25SearcherCachesLoadedIndex(t *testing.T) {
	settings := testConfig(t)

	idx := bm25.New(1.2, 0.75)
	idx.Build(map[string][]string{"p1": {"go"}})
	path := settings.IndexFile("bm25", "shard_golang", 1, "index.bin")
	require.NoError(t, idx.Save(path))

	st := &fakeActiveStore{active: map[string]*store.IndexVersion{
		activeKey("bm25", "shard_golang"): {Version: 1},
	}}
	router := shard.NewRouter(staticAssignments{"golang": "shard_golang"}, staticActiveIndex{"bm25": {"shard_golang"}})
	searcher := NewBM25Searcher(st, router, settings, splitPreprocessor{}, 8)

	_, err := searcher.Search(context.Background(), "go", "golang", 10)
	require.NoError(t, err)
	_, err = searcher.Search(context.Background(), "go", "golang", 10)
	require.NoError(t, err)

	// the index file is loaded once and memoized by path, but GetActive
	// is still consulted on each call to discover the current file_path.
	assert.Len(t, searcher.cache.cache.Keys(), 1)
}

func TestBM25SearcherSkipsShardWithMissingFile(t *testing.T) {
	settings := testConfig(t)
	st := &fakeActiveStore{active: map[string]*store.IndexVersion{
		activeKey("bm25", "shard_golang"): {Version: 1}, // no file written
	}}
	router := shard.NewRouter(staticAssignments{"golang": "shard_golang"}, staticActiveIndex{"bm25": {"shard_golang"}})
	searcher := NewBM25Searcher(st, router, settings, splitPreprocessor{}, 8)

	hits, err := searcher.Search(context.Background(), "go", "golang", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBM25SearcherReturnsEmptyForUnroutedSubreddit(t *testing.T) {
	settings := testConfig(t)
	st := &fakeActiveStore{active: map[string]*store.IndexVersion{}}
	router := shard.NewRouter(staticAssignments{}, staticActiveIndex{})
	searcher := NewBM25Searcher(st, router, settings, splitPreprocessor{}, 8)

	hits, err := searcher.Search(context.Background(), "go", "nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTFIDFSearcherScores(t *testing.T) {
	settings := testConfig(t)

	idx := tfidf.New()
	idx.Build(map[string][]string{
		"p1": {"go", "channels"},
		"p2": {"rust", "borrow"},
	})
	path := settings.IndexFile("tfidf", "shard_golang", 1, "index.bin")
	require.NoError(t, idx.Save(path))

	st := &fakeActiveStore{active: map[string]*store.IndexVersion{
		activeKey("tfidf", "shard_golang"): {Version: 1},
	}}
	router := shard.NewRouter(staticAssignments{"golang": "shard_golang"}, staticActiveIndex{"tfidf": {"shard_golang"}})
	searcher := NewTFIDFSearcher(st, router, settings, splitPreprocessor{}, 8)

	hits, err := searcher.Search(context.Background(), "go channels", "golang", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].DocID)
}

type fixedEncoder struct{ vec []float32 }

func (f fixedEncoder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func TestVectorSearcherScores(t *testing.T) {
	settings := testConfig(t)

	idx := vector.New(0)
	idx.Build([]string{"p1", "p2"}, [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	})
	path := settings.IndexFile("vector", "shard_golang", 1, "vectors.bin")
	require.NoError(t, idx.Save(path))

	st := &fakeActiveStore{active: map[string]*store.IndexVersion{
		activeKey("vector", "shard_golang"): {Version: 1},
	}}
	router := shard.NewRouter(staticAssignments{"golang": "shard_golang"}, staticActiveIndex{"vector": {"shard_golang"}})
	searcher := NewVectorSearcher(st, router, settings, fixedEncoder{vec: []float32{1, 0, 0}}, 8)

	hits, err := searcher.Search(context.Background(), "goroutines", "golang", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "p1", hits[0].DocID)
}

func TestEngineHybridSearchFusesAcrossIndexTypes(t *testing.T) {
	settings := testConfig(t)
	settings.Search.TopKPerIndex = 10

	bm := bm25.New(1.2, 0.75)
	bm.Build(map[string][]string{"p1": {"go", "concurrency"}, "p2": {"rust"}})
	require.NoError(t, bm.Save(settings.IndexFile("bm25", "shard_golang", 1, "index.bin")))

	tf := tfidf.New()
	tf.Build(map[string][]string{"p1": {"go", "concurrency"}, "p2": {"rust"}})
	require.NoError(t, tf.Save(settings.IndexFile("tfidf", "shard_golang", 1, "index.bin")))

	vi := vector.New(0)
	vi.Build([]string{"p1", "p2"}, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, vi.Save(settings.IndexFile("vector", "shard_golang", 1, "vectors.bin")))

	st := &fakeActiveStore{active: map[string]*store.IndexVersion{
		activeKey("bm25", "shard_golang"):   {Version: 1},
		activeKey("tfidf", "shard_golang"):  {Version: 1},
		activeKey("vector", "shard_golang"): {Version: 1},
	}}
	assignments := staticAssignments{"golang": "shard_golang"}
	activeIdx := staticActiveIndex{
		"bm25":   {"shard_golang"},
		"tfidf":  {"shard_golang"},
		"vector": {"shard_golang"},
	}
	router := shard.NewRouter(assignments, activeIdx)

	bm25Searcher := NewBM25Searcher(st, router, settings, splitPreprocessor{}, 8)
	tfidfSearcher := NewTFIDFSearcher(st, router, settings, splitPreprocessor{}, 8)
	vectorSearcher := NewVectorSearcher(st, router, settings, fixedEncoder{vec: []float32{1, 0}}, 8)

	engine := NewEngine(bm25Searcher, tfidfSearcher, vectorSearcher, settings)
	hits, err := engine.Search(context.Background(), Request{Query: "go concurrency", Subreddit: "golang", TopK: 10})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "p1", hits[0].DocID)
}

func TestEngineRejectsEmptyQuery(t *testing.T) {
	settings := testConfig(t)
	engine := NewEngine(nil, nil, nil, settings)
	_, err := engine.Search(context.Background(), Request{Query: ""})
	require.Error(t, err)
}

func TestEngineSingleIndexTypeBypassesFusion(t *testing.T) {
	settings := testConfig(t)

	bm := bm25.New(1.2, 0.75)
	bm.Build(map[string][]string{"p1": {"go"}})
	require.NoError(t, bm.Save(settings.IndexFile("bm25", "shard_golang", 1, "index.bin")))

	st := &fakeActiveStore{active: map[string]*store.IndexVersion{
		activeKey("bm25", "shard_golang"): {Version: 1},
	}}
	router := shard.NewRouter(staticAssignments{"golang": "shard_golang"}, staticActiveIndex{"bm25": {"shard_golang"}})
	bm25Searcher := NewBM25Searcher(st, router, settings, splitPreprocessor{}, 8)

	engine := NewEngine(bm25Searcher, nil, nil, settings)
	hits, err := engine.Search(context.Background(), Request{Query: "go", Subreddit: "golang", IndexType: "bm25", TopK: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Greater(t, hits[0].BM25Score, 0.0)
	assert.Zero(t, hits[0].TFIDFScore)
}

func TestIndexFilePathJoinsVersionDir(t *testing.T) {
	settings := testConfig(t)
	path := settings.IndexFile("bm25", "shard_golang", 3, "index.bin")
	assert.Equal(t, filepath.Join(settings.Storage.DataDir, "indexes", "bm25", "shard_golang", "v3", "index.bin"), path)
}
