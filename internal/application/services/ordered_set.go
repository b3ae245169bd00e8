package services

// OrderedIDSet is a set of ids that remembers insertion order. Re-adding a
// present id keeps its original position.
type OrderedIDSet struct {
	ids   []string
	index map[string]int
}

// NewOrderedIDSet builds a set from ids, dropping later duplicates
func NewOrderedIDSet(ids ...string) *OrderedIDSet {
	s := &OrderedIDSet{index: make(map[string]int, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether the set changed
func (s *OrderedIDSet) Add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	return true
}

// Remove deletes id and reports whether the set changed
func (s *OrderedIDSet) Remove(id string) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	s.ids = append(s.ids[:pos], s.ids[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.ids); i++ {
		s.index[s.ids[i]] = i
	}
	return true
}

// Has reports membership
func (s *OrderedIDSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids
func (s *OrderedIDSet) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in insertion order
func (s *OrderedIDSet) IDs() []string {
	return append([]string{}, s.ids...)
}
