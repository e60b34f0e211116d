package utils

// OrderedSet tracks distinct strings and remembers the order in which they
// were first seen.
type OrderedSet struct {
	seen  map[string]struct{}
	items []string
}

// NewOrderedSet creates an empty OrderedSet.
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{seen: make(map[string]struct{})}
}

// Add returns true if s was newly added, false if already present.
func (s *OrderedSet) Add(v string) bool {
	if _, exists := s.seen[v]; exists {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Contains returns true if v has already been added.
func (s *OrderedSet) Contains(v string) bool {
	_, exists := s.seen[v]
	return exists
}

// Size returns the number of distinct values tracked.
func (s *OrderedSet) Size() int {
	return len(s.items)
}

// Items returns the distinct values in first-seen order. Never nil.
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
