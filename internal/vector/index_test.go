package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNormalizesRows(t *testing.T) {
	idx := New(0)
	idx.Build([]string{"d1", "d2"}, [][]float32{
		{3, 4, 0},
		{0, 0, 0},
	})

	var sumSq float64
	for _, v := range idx.vectors[0] {
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-5)
	assert.Equal(t, []float32{0, 0, 0}, idx.vectors[1])
}

func TestScoreRanksExactMatchHighest(t *testing.T) {
	idx := New(0)
	idx.Build([]string{"d1", "d2", "d3"}, [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.7, 0.7, 0},
	})

	hits := idx.Score([]float32{1, 0, 0}, 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d1", hits[0].DocID)
}

func TestScoreTopKTruncates(t *testing.T) {
	idx := New(0)
	idx.Build([]string{"d1", "d2", "d3"}, [][]float32{
		{1, 0},
		{0.9, 0.1},
		{0, 1},
	})

	hits := idx.Score([]float32{1, 0}, 2)
	assert.Len(t, hits, 2)
}

func TestScoreOnEmptyIndex(t *testing.T) {
	idx := New(0)
	idx.Build(nil, nil)
	assert.Empty(t, idx.Score([]float32{1, 0}, 10))
}

func TestBuildAboveThresholdUsesApproximateGraph(t *testing.T) {
	idx := New(2)
	idx.Build([]string{"d1", "d2", "d3"}, [][]float32{
		{1, 0},
		{0, 1},
		{0.5, 0.5},
	})
	require.NotNil(t, idx.graph)

	hits := idx.Score([]float32{1, 0}, 1)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d1", hits[0].DocID)
}

func TestBuildAtOrBelowThresholdStaysFlat(t *testing.T) {
	idx := New(10)
	idx.Build([]string{"d1", "d2"}, [][]float32{{1, 0}, {0, 1}})
	assert.Nil(t, idx.graph)
}
