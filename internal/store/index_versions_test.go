package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIndexVersionDefaultsToBuilding(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertIndexVersion(IndexVersion{IndexType: "bm25", ShardID: "shard_python", Version: 1, FilePath: "data/indexes/bm25/shard_python/v1"})
	require.NoError(t, err)
	assert.Positive(t, id)

	active, err := db.GetActive("bm25", "shard_python")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestActivateSwapsSingleActiveVersion(t *testing.T) {
	db := openTestDB(t)
	_, err := db.InsertIndexVersion(IndexVersion{IndexType: "bm25", ShardID: "shard_python", Version: 1, FilePath: "v1"})
	require.NoError(t, err)
	require.NoError(t, db.Activate("bm25", "shard_python", 1))

	_, err = db.InsertIndexVersion(IndexVersion{IndexType: "bm25", ShardID: "shard_python", Version: 2, FilePath: "v2"})
	require.NoError(t, err)
	require.NoError(t, db.Activate("bm25", "shard_python", 2))

	active, err := db.GetActive("bm25", "shard_python")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 2, active.Version)

	stale, err := db.GetStale()
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, 1, stale[0].Version)
}

func TestActivateUnknownVersionFails(t *testing.T) {
	db := openTestDB(t)
	err := db.Activate("bm25", "shard_python", 99)
	assert.Error(t, err)
}

func TestGetLatestVersionNumber(t *testing.T) {
	db := openTestDB(t)
	n, err := db.GetLatestVersionNumber("bm25", "shard_python")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = db.InsertIndexVersion(IndexVersion{IndexType: "bm25", ShardID: "shard_python", Version: 1, FilePath: "v1"})
	require.NoError(t, err)
	_, err = db.InsertIndexVersion(IndexVersion{IndexType: "bm25", ShardID: "shard_python", Version: 2, FilePath: "v2"})
	require.NoError(t, err)

	n, err = db.GetLatestVersionNumber("bm25", "shard_python")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetAllActiveAcrossShards(t *testing.T) {
	db := openTestDB(t)
	_, err := db.InsertIndexVersion(IndexVersion{IndexType: "bm25", ShardID: "shard_python", Version: 1, FilePath: "v1"})
	require.NoError(t, err)
	require.NoError(t, db.Activate("bm25", "shard_python", 1))
	_, err = db.InsertIndexVersion(IndexVersion{IndexType: "vector", ShardID: "shard_rust", Version: 1, FilePath: "v1"})
	require.NoError(t, err)
	require.NoError(t, db.Activate("vector", "shard_rust", 1))

	active, err := db.GetAllActive()
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
