package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"apartment-watcher/models"
)

// LogJournal is the bounded JSON log document. Every Append rewrites the file
// keeping only the newest max entries.
type LogJournal struct {
	mu   sync.Mutex
	path string
	max  int
}

// NewLogJournal creates a journal at path retaining at most max entries.
func NewLogJournal(path string, max int) *LogJournal {
	if max < 1 {
		max = 1
	}
	return &LogJournal{path: path, max: max}
}

// Append adds entry and truncates the journal. An unreadable journal is
// replaced.
func (j *LogJournal) Append(entry models.LogEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, _ := j.load()
	entries = append(entries, entry)
	if len(entries) > j.max {
		entries = entries[len(entries)-j.max:]
	}

	if err := writeJSONFile(j.path, entries); err != nil {
		return fmt.Errorf("journal: save %q: %w", j.path, err)
	}
	return nil
}

// Entries returns the retained entries, oldest first.
func (j *LogJournal) Entries() ([]models.LogEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load()
}

func (j *LogJournal) load() ([]models.LogEntry, error) {
	var entries []models.LogEntry
	if err := readJSONFile(j.path, &entries); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}
