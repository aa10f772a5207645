package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumsearch/core/internal/store"
)

func openTestStore(t *testing.T) *store.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "forumsearch.db"), "WAL", 5000, 64)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCollectStatus_EmptyStore(t *testing.T) {
	db := openTestStore(t)

	report, err := collectStatus(db)
	require.NoError(t, err)

	assert.Empty(t, report.ActiveVersions)
	assert.Empty(t, report.RunningJobs)
	assert.Empty(t, report.FailedJobs)
	assert.Equal(t, 0, report.ShardCount)
	for _, jobType := range []string{"crawl", "preprocess", "build_index", "rebuild"} {
		assert.Equal(t, 0, report.PendingByType[jobType])
	}
}

func TestCollectStatus_ReflectsActiveVersionsAndShards(t *testing.T) {
	db := openTestStore(t)

	_, err := db.InsertIndexVersion(store.IndexVersion{
		IndexType: "bm25",
		ShardID:   "s0",
		Version:   1,
		DocCount:  10,
		FilePath:  "bm25/s0/v1.bin",
	})
	require.NoError(t, err)
	require.NoError(t, db.Activate("bm25", "s0", 1))
	require.NoError(t, db.UpsertShardAssignments(map[string]string{"askgo": "s0", "golang": "s0"}))

	report, err := collectStatus(db)
	require.NoError(t, err)

	require.Len(t, report.ActiveVersions, 1)
	assert.Equal(t, "bm25", report.ActiveVersions[0].IndexType)
	assert.Equal(t, "s0", report.ActiveVersions[0].ShardID)
	assert.Equal(t, 1, report.ShardCount, "two subreddits mapped to the same shard should count once")
}
