package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/forumsearch/core/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPoolTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPoolEnqueueAndProcess(t *testing.T) {
	db := openPoolTestDB(t)
	pool := NewPool(db, 2, 5*time.Millisecond, 2)

	processed := make(chan string, 1)
	pool.Register("crawl", func(ctx context.Context, payload json.RawMessage) error {
		var p map[string]any
		require.NoError(t, json.Unmarshal(payload, &p))
		processed <- p["subreddit"].(string)
		return nil
	})

	_, err := pool.EnqueueCrawl("golang", 10, 5)
	require.NoError(t, err)

	pool.Start(context.Background())
	defer pool.Stop(2 * time.Second)

	select {
	case sub := <-processed:
		assert.Equal(t, "golang", sub)
	case <-time.After(2 * time.Second):
		t.Fatal("job was never processed")
	}
}

func TestPoolStartIsIdempotent(t *testing.T) {
	db := openPoolTestDB(t)
	pool := NewPool(db, 1, time.Second, 1)

	pool.Start(context.Background())
	defer pool.Stop(time.Second)
	assert.Equal(t, 1, pool.WorkerCount())

	pool.Start(context.Background())
	assert.Equal(t, 1, pool.WorkerCount())
}

func TestPoolRecoverStaleAndCleanup(t *testing.T) {
	db := openPoolTestDB(t)
	pool := NewPool(db, 1, time.Second, 1)

	id, err := db.Enqueue("build_index", "{}", 1)
	require.NoError(t, err)
	job, err := db.ClaimNext("")
	require.NoError(t, err)
	require.Equal(t, id, job.ID)

	recovered, err := pool.RecoverStale(-time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), recovered)

	cleaned, err := pool.Cleanup(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cleaned, int64(0))
}
