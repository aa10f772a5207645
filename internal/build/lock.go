package build

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// withShardLock acquires an exclusive file lock on
// <shardDir>/.lock for the duration of fn, so two orchestrator
// processes racing to rebuild the same shard cannot interleave writes
// to the same version directory. SQLite's single-writer guarantee
// does not cover this: index files are written outside the database.
func withShardLock(shardDir string, fn func() error) error {
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(shardDir, ".lock"))
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}
