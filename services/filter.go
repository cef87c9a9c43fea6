package services

import (
	"strings"

	"golang.org/x/text/cases"

	"apartment-watcher/config"
	"apartment-watcher/models"
	"apartment-watcher/utils"
)

// LocationFilter keeps listings whose location contains any configured term,
// compared case-insensitively.
type LocationFilter struct {
	terms  []string
	policy config.EmptyFilterPolicy
	logger *utils.Logger
}

// NewLocationFilter creates a filter over terms. Blank terms are dropped; when
// none remain, policy decides whether every listing passes or none does.
func NewLocationFilter(terms []string, policy config.EmptyFilterPolicy, logger *utils.Logger) *LocationFilter {
	fold := cases.Fold()
	folded := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			folded = append(folded, fold.String(t))
		}
	}
	return &LocationFilter{terms: folded, policy: policy, logger: logger}
}

// Matches reports whether location passes the filter.
func (f *LocationFilter) Matches(location string) bool {
	if len(f.terms) == 0 {
		return f.policy == config.AcceptAll
	}
	loc := cases.Fold().String(location)
	for _, term := range f.terms {
		if strings.Contains(loc, term) {
			return true
		}
	}
	return false
}

// Apply returns the listings that pass, preserving input order.
func (f *LocationFilter) Apply(listings []models.Listing) []models.Listing {
	if len(f.terms) == 0 && f.policy != config.AcceptAll && len(listings) > 0 {
		f.logger.Warn("[filter] No location terms configured, every listing is rejected")
	}

	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Matches(l.Location) {
			out = append(out, l)
		}
	}

	f.logger.Debug("[filter] %d → %d listings after location filter", len(listings), len(out))
	return out
}
