package storage

import (
	"context"

	"apartment-watcher/models"
)

// StateStore persists the seen-set document. Load never fails: a missing or
// unreadable document yields the empty state.
type StateStore interface {
	Load() *models.SeenState
	Save(state *models.SeenState) error
}

// ListingMirror is a secondary, best-effort copy of persisted listings.
type ListingMirror interface {
	Write(ctx context.Context, report *models.CycleReport, listings []models.PersistedListing) error
	Close() error
}

// ListingExporter writes persisted listings to an external format.
type ListingExporter interface {
	Write(listings []models.PersistedListing) error
	Close() error
}
