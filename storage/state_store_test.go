package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

func quietLogger() *utils.Logger {
	return utils.NewLoggerWithOptions(utils.LoggerOptions{Writer: io.Discard})
}

func intPtr(v int) *int { return &v }

func TestStateStoreLoadMissingReturnsEmpty(t *testing.T) {
	store := NewJSONStateStore(filepath.Join(t.TempDir(), "apartments.json"), quietLogger())

	state := store.Load()
	assert.Equal(t, 0, state.LastCheckIndex)
	assert.NotNil(t, state.Apartments)
	assert.Empty(t, state.Apartments)
	assert.Equal(t, "apartments.json", filepath.Base(store.Path()))
}

func TestStateStoreLoadCorruptReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartments.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lastCheckIndex": 4, "apartments": [`), 0644))

	state := NewJSONStateStore(path, quietLogger()).Load()
	assert.Equal(t, 0, state.LastCheckIndex)
	assert.Empty(t, state.Apartments)
}

func TestStateStoreSaveCreatesDirAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "apartments.json")
	store := NewJSONStateStore(path, quietLogger())

	ts := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	state := &models.SeenState{
		LastCheckIndex: 2,
		Apartments: []models.PersistedListing{
			{
				Listing: models.Listing{
					ID: "https://olx.com.br/a/1", Link: "https://olx.com.br/a/1",
					Title: "Apto 2 quartos", Price: "R$ 2.500", Location: "Vila Mariana, São Paulo",
					Area: intPtr(75),
				},
				CheckIndex:     1,
				CheckTimestamp: ts,
			},
			{
				Listing:        models.Listing{ID: "https://olx.com.br/a/2", Link: "https://olx.com.br/a/2"},
				CheckIndex:     2,
				CheckTimestamp: ts,
			},
		},
	}
	require.NoError(t, store.Save(state))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(raw)
	for _, key := range []string{`"lastCheckIndex": 2`, `"metters": 75`, `"metters": null`, `"checkIndex": 1`, `"checkTimestamp"`} {
		assert.True(t, strings.Contains(doc, key), "document should contain %s", key)
	}

	loaded := store.Load()
	assert.Equal(t, state.LastCheckIndex, loaded.LastCheckIndex)
	require.Len(t, loaded.Apartments, 2)
	assert.Equal(t, 75, *loaded.Apartments[0].Area)
	assert.Nil(t, loaded.Apartments[1].Area)
	assert.True(t, ts.Equal(loaded.Apartments[0].CheckTimestamp))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStateStoreLoadReadsOriginalDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartments.json")
	doc := `{
  "lastCheckIndex": 12,
  "apartments": [
    {
      "id": "https://sp.olx.com.br/x/1",
      "title": "Apartamento",
      "price": "R$ 3.100",
      "location": "Pinheiros, São Paulo",
      "link": "https://sp.olx.com.br/x/1",
      "metters": null,
      "checkIndex": 3,
      "checkTimestamp": "2026-01-02T03:04:05.678Z"
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	state := NewJSONStateStore(path, quietLogger()).Load()
	assert.Equal(t, 12, state.LastCheckIndex)
	require.Len(t, state.Apartments, 1)
	assert.Equal(t, 3, state.Apartments[0].CheckIndex)
	_, seen := state.SeenIDs()["https://sp.olx.com.br/x/1"]
	assert.True(t, seen)
}
