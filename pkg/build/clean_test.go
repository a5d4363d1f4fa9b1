package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"build-uno", "build-mega2560/obj", "src"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build-notes.txt"), []byte("x"), 0644))

	removed, err := Clean(dir, "build-")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{filepath.Join(dir, "build-uno"), filepath.Join(dir, "build-mega2560")}, removed)
	assert.NoDirExists(t, filepath.Join(dir, "build-uno"))
	assert.NoDirExists(t, filepath.Join(dir, "build-mega2560"))
	assert.DirExists(t, filepath.Join(dir, "src"))
	assert.FileExists(t, filepath.Join(dir, "build-notes.txt"))
}

func TestClean_NothingToRemove(t *testing.T) {
	removed, err := Clean(t.TempDir(), "build-")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestClean_EmptyPrefix(t *testing.T) {
	_, err := Clean(t.TempDir(), "")
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageClean, stageErr.Stage)
}
