package cmap

// Set is a concurrent-safe sharded set of strings.
type Set struct {
	m *Map[struct{}]
}

// NewSet creates an empty set.
func NewSet(opts ...Option) *Set {
	return &Set{m: New[struct{}](opts...)}
}

// Add inserts member and reports whether it was newly added.
func (s *Set) Add(member string) bool {
	return s.m.SetIfAbsent(member, struct{}{})
}

// Remove deletes member and reports whether it was present.
func (s *Set) Remove(member string) bool {
	return s.m.Delete(member)
}

// Contains reports whether member is in the set.
func (s *Set) Contains(member string) bool {
	return s.m.Has(member)
}

// Len returns the number of members.
func (s *Set) Len() int {
	return s.m.Count()
}

// Members returns the members in no particular order.
func (s *Set) Members() []string {
	return s.m.Keys()
}
