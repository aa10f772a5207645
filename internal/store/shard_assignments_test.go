package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAndGetShardAssignment(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.UpsertShardAssignments(map[string]string{"python": "shard_python", "smalltalk": "shard_misc"}))

	shardID, ok, err := db.GetShardAssignment("python")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shard_python", shardID)
}

func TestGetShardAssignmentMissing(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.GetShardAssignment("unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertShardAssignmentsOverwritesPreviousPlan(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.UpsertShardAssignments(map[string]string{"python": "shard_misc"}))
	require.NoError(t, db.UpsertShardAssignments(map[string]string{"python": "shard_python"}))

	shardID, ok, err := db.GetShardAssignment("python")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shard_python", shardID)
}

func TestAllShardAssignments(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.UpsertShardAssignments(map[string]string{"python": "shard_python", "go": "shard_misc"}))

	all, err := db.AllShardAssignments()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"python": "shard_python", "go": "shard_misc"}, all)
}
