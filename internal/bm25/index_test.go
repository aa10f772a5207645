package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildComputesDocCountAndAvgDocLen(t *testing.T) {
	idx := New(DefaultK1, DefaultB)
	idx.Build(map[string][]string{
		"d1": {"go", "is", "fast"},
		"d2": {"go", "go", "rocks"},
	})

	assert.Equal(t, 2, idx.DocCount())
	assert.InDelta(t, 3.0, idx.AvgDocLen(), 1e-9)
}

func TestBuildOnEmptyInputYieldsZeroAvgDocLen(t *testing.T) {
	idx := New(DefaultK1, DefaultB)
	idx.Build(map[string][]string{})

	assert.Equal(t, 0, idx.DocCount())
	assert.Equal(t, 0.0, idx.AvgDocLen())
}

func TestScoreRanksMoreRelevantDocHigher(t *testing.T) {
	idx := New(DefaultK1, DefaultB)
	idx.Build(map[string][]string{
		"d1": {"go", "go", "go", "concurrency"},
		"d2": {"go", "python", "rust"},
		"d3": {"python", "rust", "java"},
	})

	hits := idx.Score([]string{"go"}, 10)
	require.Len(t, hits, 2)
	assert.Equal(t, "d1", hits[0].DocID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestScoreOnEmptyQueryReturnsEmpty(t *testing.T) {
	idx := New(DefaultK1, DefaultB)
	idx.Build(map[string][]string{"d1": {"go"}})

	assert.Equal(t, []Hit{}, idx.Score(nil, 10))
}

func TestScoreOnEmptyIndexReturnsEmpty(t *testing.T) {
	idx := New(DefaultK1, DefaultB)
	assert.Equal(t, []Hit{}, idx.Score([]string{"go"}, 10))
}

func TestScoreTruncatesToTopK(t *testing.T) {
	idx := New(DefaultK1, DefaultB)
	idx.Build(map[string][]string{
		"d1": {"go"}, "d2": {"go"}, "d3": {"go"},
	})

	hits := idx.Score([]string{"go"}, 2)
	assert.Len(t, hits, 2)
}

func TestIDFIsNonNegative(t *testing.T) {
	idx := New(DefaultK1, DefaultB)
	docs := map[string][]string{}
	for i := 0; i < 100; i++ {
		docs[string(rune('a'+i%26))+string(rune(i))] = []string{"common"}
	}
	idx.Build(docs)

	hits := idx.Score([]string{"common"}, 1000)
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, 0.0)
	}
}
