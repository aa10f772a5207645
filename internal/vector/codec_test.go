package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumsearch/core/internal/forumerr"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := New(0)
	idx.Build([]string{"d1", "d2"}, [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	})

	path := filepath.Join(t.TempDir(), "vector.bin")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, idx.DocCount(), loaded.DocCount())
	assert.Equal(t, idx.Dim(), loaded.Dim())

	origHits := idx.Score([]float32{1, 0, 0}, 10)
	loadedHits := loaded.Score([]float32{1, 0, 0}, 10)
	assert.Equal(t, origHits, loadedHits)
}

func TestLoadTruncatedFileIsIndexCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	_, err := Load(path, 0)
	require.Error(t, err)
	assert.True(t, forumerr.Is(err, forumerr.KindIndexCorrupt))
}

func TestLoadRebuildsApproximateGraphWhenOverThreshold(t *testing.T) {
	idx := New(0)
	idx.Build([]string{"d1", "d2", "d3"}, [][]float32{
		{1, 0},
		{0, 1},
		{0.5, 0.5},
	})

	path := filepath.Join(t.TempDir(), "vector.bin")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path, 2)
	require.NoError(t, err)
	assert.NotNil(t, loaded.graph)
}
