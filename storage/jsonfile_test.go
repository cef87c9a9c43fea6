package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONFileReplacesWithoutLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "apartments.json")

	require.NoError(t, writeJSONFile(path, map[string]int{"lastCheckIndex": 1}))
	require.NoError(t, writeJSONFile(path, map[string]int{"lastCheckIndex": 2}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "apartments.json", entries[0].Name())

	var got map[string]int
	require.NoError(t, readJSONFile(path, &got))
	assert.Equal(t, 2, got["lastCheckIndex"])
}
