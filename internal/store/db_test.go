package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchemaAndStampsVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forumsearch.db")

	db, err := Open(path, "WAL", 5000, 64)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)
}

func TestOpenClearsCorruptedDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forumsearch.db")
	require.NoError(t, os.WriteFile(path, []byte("not a sqlite file"), 0o644))

	db, err := Open(path, "WAL", 5000, 64)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)
}

func TestOpenIsReentrant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forumsearch.db")

	db1, err := Open(path, "WAL", 5000, 64)
	require.NoError(t, err)
	require.NoError(t, db1.InsertRawPost(samplePost("t3_1", "golang")))
	require.NoError(t, db1.Close())

	db2, err := Open(path, "WAL", 5000, 64)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.GetRawPost("t3_1")
	require.NoError(t, err)
	assert.Equal(t, "golang", got.Subreddit)
}
