package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func samplePost(id, subreddit string) RawPost {
	return RawPost{
		ID:        id,
		Subreddit: subreddit,
		Permalink: "/r/" + subreddit + "/comments/" + id + "/",
		Title:     "title " + id,
		Score:     1,
		PostType:  "self",
	}
}

func TestInsertAndGetRawPost(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertRawPost(samplePost("t3_1", "golang")))

	got, err := db.GetRawPost("t3_1")
	require.NoError(t, err)
	assert.Equal(t, "golang", got.Subreddit)
	assert.False(t, got.CrawledAt.IsZero())
}

func TestGetRawPostNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetRawPost("missing")
	require.Error(t, err)
}

func TestInsertRawPostRejectsDuplicatePermalink(t *testing.T) {
	db := openTestDB(t)
	p := samplePost("t3_1", "golang")
	require.NoError(t, db.InsertRawPost(p))

	dup := p
	dup.ID = "t3_2"
	err := db.InsertRawPost(dup)
	assert.Error(t, err)
}

func TestListUnprocessedExcludesProcessed(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertRawPost(samplePost("t3_1", "golang")))
	require.NoError(t, db.InsertRawPost(samplePost("t3_2", "golang")))
	require.NoError(t, db.UpsertProcessedPost(ProcessedPost{ID: "t3_1", AllTokens: []string{"title", "1"}}))

	unprocessed, err := db.ListUnprocessed(10)
	require.NoError(t, err)
	require.Len(t, unprocessed, 1)
	assert.Equal(t, "t3_2", unprocessed[0].ID)
}

func TestDocCountsBySubreddit(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertRawPost(samplePost("t3_1", "golang")))
	require.NoError(t, db.InsertRawPost(samplePost("t3_2", "golang")))
	require.NoError(t, db.InsertRawPost(samplePost("t3_3", "rust")))

	counts, err := db.DocCountsBySubreddit()
	require.NoError(t, err)
	assert.Equal(t, 2, counts["golang"])
	assert.Equal(t, 1, counts["rust"])
}

func TestDeleteRawPostCascadesProcessed(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertRawPost(samplePost("t3_1", "golang")))
	require.NoError(t, db.UpsertProcessedPost(ProcessedPost{ID: "t3_1", AllTokens: []string{"a"}}))

	require.NoError(t, db.DeleteRawPost("t3_1"))

	_, err := db.GetProcessedPost("t3_1")
	assert.Error(t, err)
}
