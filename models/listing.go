package models

import "time"

// Listing is a single ad card as extracted from the rendered search page.
// ID always equals Link: the canonical URL is the listing's identity, so a
// changed price or title never makes a listing new again.
type Listing struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Location string `json:"location"`
	Link     string `json:"link"`
	// Area is the floor area in square meters, nil when the card does not report it.
	Area *int `json:"metters"`
}

// PersistedListing is a Listing stamped with the cycle that first observed it.
type PersistedListing struct {
	Listing
	CheckIndex     int       `json:"checkIndex"`
	CheckTimestamp time.Time `json:"checkTimestamp"`
}

// SeenState is the single persisted document holding every listing ever
// observed, in discovery order, plus the number of completed cycles.
type SeenState struct {
	LastCheckIndex int                `json:"lastCheckIndex"`
	Apartments     []PersistedListing `json:"apartments"`
}

// NewSeenState returns the empty state used on first run.
func NewSeenState() *SeenState {
	return &SeenState{Apartments: make([]PersistedListing, 0)}
}

// SeenIDs projects the state onto the set of known listing identities.
func (s *SeenState) SeenIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Apartments))
	for _, a := range s.Apartments {
		ids[a.ID] = struct{}{}
	}
	return ids
}

// CycleReport holds the counters of one check cycle.
type CycleReport struct {
	RunID         string
	CheckIndex    int
	TotalFound    int
	TotalFiltered int
	Novel         []Listing
	NextCheck     time.Time
	// Deliveries counts Telegram messages attempted, one per recipient.
	Deliveries       int
	DeliveriesFailed int
	StartedAt        time.Time
	FinishedAt       time.Time
}

// NovelCount returns the number of listings first seen in this cycle.
func (r *CycleReport) NovelCount() int {
	return len(r.Novel)
}
