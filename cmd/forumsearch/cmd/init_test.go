package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runInitIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(oldWd) }()

	var stdout bytes.Buffer
	cmd := newInitCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	runErr := cmd.Execute()
	return stdout.String(), runErr
}

func TestInitCmd_WritesConfigAndDataDir(t *testing.T) {
	tmpDir := t.TempDir()

	output, err := runInitIn(t, tmpDir)
	require.NoError(t, err)
	assert.Contains(t, output, "forumsearch.yaml")

	configPath := filepath.Join(tmpDir, "forumsearch.yaml")
	_, statErr := os.Stat(configPath)
	assert.NoError(t, statErr, "forumsearch.yaml should be created")
}

func TestInitCmd_RefusesToOverwriteWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := runInitIn(t, tmpDir)
	require.NoError(t, err)

	_, err = runInitIn(t, tmpDir)
	assert.Error(t, err, "a second init without --force should refuse to overwrite")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := runInitIn(t, tmpDir)
	require.NoError(t, err)

	_, err = runInitIn(t, tmpDir, "--force")
	assert.NoError(t, err)
}
