package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatrixShapeMatchesDocsAndVocabulary(t *testing.T) {
	idx := New()
	idx.Build(map[string][]string{
		"d1": {"go", "is", "fast"},
		"d2": {"go", "rocks"},
	})

	assert.Equal(t, 2, idx.DocCount())
	assert.Len(t, idx.matrix, 2)
	for _, row := range idx.matrix {
		assert.Len(t, row, len(idx.vocabulary))
	}
	assert.Len(t, idx.idf, len(idx.vocabulary))
}

func TestRowsAreL2Normalized(t *testing.T) {
	idx := New()
	idx.Build(map[string][]string{
		"d1": {"go", "go", "fast"},
		"d2": {"python"},
	})

	for _, row := range idx.matrix {
		var sumSq float64
		for _, v := range row {
			sumSq += float64(v) * float64(v)
		}
		if sumSq == 0 {
			continue
		}
		assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-5)
	}
}

func TestScoreDiscardsNonPositiveSimilarity(t *testing.T) {
	idx := New()
	idx.Build(map[string][]string{
		"d1": {"go", "concurrency"},
		"d2": {"python", "django"},
	})

	hits := idx.Score([]string{"rust"}, 10)
	assert.Empty(t, hits)
}

func TestScoreRanksExactMatchHighest(t *testing.T) {
	idx := New()
	idx.Build(map[string][]string{
		"d1": {"go", "concurrency", "channels"},
		"d2": {"go", "python", "rust"},
		"d3": {"python", "django"},
	})

	hits := idx.Score([]string{"go", "concurrency", "channels"}, 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d1", hits[0].DocID)
}

func TestBuildOnEmptyInput(t *testing.T) {
	idx := New()
	idx.Build(map[string][]string{})
	assert.Equal(t, 0, idx.DocCount())
	assert.Empty(t, idx.Score([]string{"anything"}, 10))
}
