package utils

// IDSet tracks listing identities during one cycle. It is not safe for
// concurrent use; a cycle has a single writer.
type IDSet struct {
	seen map[string]struct{}
}

// NewIDSet creates a set pre-populated with the given identities.
func NewIDSet(seed map[string]struct{}) *IDSet {
	s := &IDSet{seen: make(map[string]struct{}, len(seed))}
	for id := range seed {
		s.seen[id] = struct{}{}
	}
	return s
}

// Add returns true if id was newly added, false if already present.
func (s *IDSet) Add(id string) bool {
	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}
