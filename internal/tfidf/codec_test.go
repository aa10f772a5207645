package tfidf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumsearch/core/internal/forumerr"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := New()
	idx.Build(map[string][]string{
		"d1": {"go", "is", "fast"},
		"d2": {"go", "rocks"},
	})

	path := filepath.Join(t.TempDir(), "tfidf.bin")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, idx.DocCount(), loaded.DocCount())
	assert.Equal(t, idx.vocabulary, loaded.vocabulary)

	origHits := idx.Score([]string{"go"}, 10)
	loadedHits := loaded.Score([]string{"go"}, 10)
	assert.Equal(t, origHits, loadedHits)
}

func TestLoadTruncatedFileIsIndexCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2}, 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, forumerr.Is(err, forumerr.KindIndexCorrupt))
}
