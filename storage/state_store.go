package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

// JSONStateStore keeps the seen-set in a single JSON document on disk.
type JSONStateStore struct {
	path   string
	logger *utils.Logger
}

// NewJSONStateStore creates a store for the document at path. The file and
// its directory are created on first Save.
func NewJSONStateStore(path string, logger *utils.Logger) *JSONStateStore {
	return &JSONStateStore{path: path, logger: logger}
}

// Path returns the location of the state document.
func (s *JSONStateStore) Path() string {
	return s.path
}

// Load returns the persisted state. A missing document is a first run; an
// unreadable one is logged and treated the same way.
func (s *JSONStateStore) Load() *models.SeenState {
	state := models.NewSeenState()
	if err := readJSONFile(s.path, state); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("[store] Could not read %s, starting from empty state: %v", s.path, err)
		}
		return models.NewSeenState()
	}

	if state.Apartments == nil {
		state.Apartments = make([]models.PersistedListing, 0)
	}
	if state.LastCheckIndex < 0 {
		s.logger.Warn("[store] Negative lastCheckIndex %d in %s, resetting to 0", state.LastCheckIndex, s.path)
		state.LastCheckIndex = 0
	}
	return state
}

// Save overwrites the document with state.
func (s *JSONStateStore) Save(state *models.SeenState) error {
	if err := writeJSONFile(s.path, state); err != nil {
		return fmt.Errorf("store: save %q: %w", s.path, err)
	}
	return nil
}
