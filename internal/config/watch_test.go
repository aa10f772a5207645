package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshotLoadReturnsInitial(t *testing.T) {
	s := NewSnapshot(New())
	if s.Load().Search.RRFConstant != 60 {
		t.Errorf("expected initial snapshot to carry defaults")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	initial, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	snap := NewSnapshot(initial)
	stop, err := snap.Watch(dir)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer func() { _ = stop() }()

	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte("shard:\n  dedicated_threshold: 777\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap.Load().Shard.DedicatedThreshold == 777 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for config reload to be observed")
}
