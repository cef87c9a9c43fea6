package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-watcher/models"
)

func TestLogJournalKeepsLastEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "logs.json")
	j := NewLogJournal(path, 3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, j.Append(models.LogEntry{
			Timestamp: time.Now().UTC(),
			Level:     models.LevelInfo,
			Message:   fmt.Sprintf("entry %d", i),
		}))
	}

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 3", entries[0].Message)
	assert.Equal(t, "entry 5", entries[2].Message)
}

func TestLogJournalReplacesCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
	j := NewLogJournal(path, 10)

	require.NoError(t, j.Append(models.LogEntry{
		Level:   models.LevelWarn,
		Message: "after corruption",
		Data:    map[string]any{"total": 3},
	}))

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LevelWarn, entries[0].Level)
	assert.EqualValues(t, 3, entries[0].Data["total"])
}
