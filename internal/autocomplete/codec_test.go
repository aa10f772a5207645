package autocomplete

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumsearch/core/internal/forumerr"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	tr := NewTrie()
	tr.Insert("golang", 5)
	tr.Insert("google", 10)
	tr.Insert("gopher", 3)

	path := filepath.Join(t.TempDir(), "all.bin")
	require.NoError(t, tr.Save(path))

	loaded, err := LoadTrie(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Size(), loaded.Size())
	assert.Equal(t, tr.Search("go", 10), loaded.Search("go", 10))
}

func TestLoadRecomputesSize(t *testing.T) {
	tr := NewTrie()
	tr.Insert("a", 1)
	tr.Insert("b", 2)
	tr.Insert("ab", 3)

	path := filepath.Join(t.TempDir(), "all.bin")
	require.NoError(t, tr.Save(path))

	loaded, err := LoadTrie(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Size())
}

func TestLoadTruncatedFileIsIndexCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2}, 0o644))

	_, err := LoadTrie(path)
	require.Error(t, err)
	assert.True(t, forumerr.Is(err, forumerr.KindIndexCorrupt))
}
