package services

import (
	"time"

	"apartment-watcher/models"
	"apartment-watcher/storage"
	"apartment-watcher/utils"
)

// Diff is the outcome of comparing one cycle's filtered listings with the
// seen-set. It is committed at most once.
type Diff struct {
	State          *models.SeenState
	Novel          []models.Listing
	NextCheckIndex int
}

// DiffEngine computes novel listings and commits them to the state store.
type DiffEngine struct {
	store  storage.StateStore
	now    func() time.Time
	logger *utils.Logger
}

// NewDiffEngine creates an engine over store. now stamps committed listings.
func NewDiffEngine(store storage.StateStore, now func() time.Time, logger *utils.Logger) *DiffEngine {
	if now == nil {
		now = time.Now
	}
	return &DiffEngine{store: store, now: now, logger: logger}
}

// Compute loads the seen-set and returns the listings in current that are not
// in it, in input order.
func (d *DiffEngine) Compute(current []models.Listing) *Diff {
	state := d.store.Load()
	novel := NovelListings(current, state)
	return &Diff{
		State:          state,
		Novel:          novel,
		NextCheckIndex: state.LastCheckIndex + 1,
	}
}

// NovelListings returns the listings whose ID is absent from state. A listing
// repeated within current is reported once; listings without an ID cannot be
// tracked and are never novel.
func NovelListings(current []models.Listing, state *models.SeenState) []models.Listing {
	seen := utils.NewIDSet(state.SeenIDs())
	novel := make([]models.Listing, 0)
	for _, l := range current {
		if l.ID == "" {
			continue
		}
		if seen.Add(l.ID) {
			novel = append(novel, l)
		}
	}
	return novel
}

// Commit stamps the novel listings with the cycle index and current time,
// appends them to the seen-set, advances the check index and writes the
// document once. It returns the appended records.
func (d *DiffEngine) Commit(diff *Diff) ([]models.PersistedListing, error) {
	stamp := d.now()
	appended := make([]models.PersistedListing, 0, len(diff.Novel))
	for _, l := range diff.Novel {
		appended = append(appended, models.PersistedListing{
			Listing:        l,
			CheckIndex:     diff.NextCheckIndex,
			CheckTimestamp: stamp,
		})
	}

	diff.State.Apartments = append(diff.State.Apartments, appended...)
	diff.State.LastCheckIndex = diff.NextCheckIndex

	if err := d.store.Save(diff.State); err != nil {
		return nil, err
	}
	d.logger.Debug("[diff] Saved %d apartments (check #%d)", len(diff.State.Apartments), diff.NextCheckIndex)
	return appended, nil
}
