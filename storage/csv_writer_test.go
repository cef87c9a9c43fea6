package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-watcher/models"
)

func TestCSVWriterExportsListings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "apartments.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	ts := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.Write([]models.PersistedListing{
		{Listing: models.Listing{ID: "u1", Link: "u1", Title: "A, with comma", Area: intPtr(40)}, CheckIndex: 1, CheckTimestamp: ts},
		{Listing: models.Listing{ID: "u2", Link: "u2", Title: "B"}, CheckIndex: 2, CheckTimestamp: ts},
	}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, []string{"u1", "A, with comma", "", "", "u1", "40", "1", "2026-10-18T12:00:00Z"}, rows[1])
	assert.Equal(t, "", rows[2][5])
}
