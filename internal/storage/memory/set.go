package memory

// SAdd inserts members into the set at key, creating it if needed, and
// returns how many were not already present.
func (s *Store) SAdd(key string, members ...string) int64 {
	if len(members) == 0 {
		return 0
	}
	var added int64
	write(s.sets, key, newSetValue(s.fieldShardCount), func(v *setValue) {
		for _, m := range members {
			if v.members.Add(m) {
				added++
			}
		}
	})
	return added
}

// SMembers returns a snapshot of the set at key in no particular order.
func (s *Store) SMembers(key string) ([]string, bool) {
	var out []string
	found := snapshot(s.sets, key, func(v *setValue) {
		out = v.members.Members()
	})
	return out, found
}

// SIsMember reports whether member is in the set at key.
func (s *Store) SIsMember(key, member string) bool {
	v, ok := s.sets.Get(key)
	return ok && v.members.Contains(member)
}

// SRem removes members from the set at key and returns how many were
// present. The set is removed once empty.
func (s *Store) SRem(key string, members ...string) int64 {
	v, ok := s.sets.Get(key)
	if !ok || !v.enter() {
		return 0
	}
	var removed int64
	for _, m := range members {
		if v.members.Remove(m) {
			removed++
		}
	}
	v.leave()

	if removed > 0 {
		unlinkIfEmpty(s.sets, key, v)
	}
	return removed
}

// SCard returns the number of members in the set at key.
func (s *Store) SCard(key string) int64 {
	v, ok := s.sets.Get(key)
	if !ok {
		return 0
	}
	return int64(v.members.Len())
}
