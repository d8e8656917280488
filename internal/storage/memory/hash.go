package memory

import "github.com/yndnr/meshkv/pkg/resp"

// FieldValue is one field of a hash.
type FieldValue struct {
	Field string
	Value resp.Frame
}

// HGet returns a copy of one field of the hash at key.
func (s *Store) HGet(key, field string) (resp.Frame, bool) {
	h, ok := s.hashes.Get(key)
	if !ok {
		return resp.Frame{}, false
	}
	f, ok := h.fields.Get(field)
	if !ok {
		return resp.Frame{}, false
	}
	return f.Clone(), true
}

// HMGet returns the requested fields in order, nil for each missing
// field. The second result is false when key holds no hash.
func (s *Store) HMGet(key string, fields []string) ([]*resp.Frame, bool) {
	out := make([]*resp.Frame, len(fields))
	found := snapshot(s.hashes, key, func(h *hashValue) {
		for i, field := range fields {
			if f, ok := h.fields.Get(field); ok {
				c := f.Clone()
				out[i] = &c
			}
		}
	})
	if !found {
		return nil, false
	}
	return out, true
}

// HMSet writes every pair into the hash at key, creating it if needed,
// and returns the number of fields that did not exist before. A field
// repeated within pairs is counted at most once; the last value wins.
func (s *Store) HMSet(key string, pairs []FieldValue) int64 {
	if len(pairs) == 0 {
		return 0
	}
	var created int64
	write(s.hashes, key, newHashValue(s.fieldShardCount), func(h *hashValue) {
		for _, p := range pairs {
			if _, existed := h.fields.Swap(p.Field, p.Value.Clone()); !existed {
				created++
			}
		}
	})
	return created
}

// HGetAll returns a snapshot of every field of the hash at key. Order is
// unspecified.
func (s *Store) HGetAll(key string) ([]FieldValue, bool) {
	var out []FieldValue
	found := snapshot(s.hashes, key, func(h *hashValue) {
		out = make([]FieldValue, 0, h.fields.Count())
		h.fields.Range(func(field string, value resp.Frame) bool {
			out = append(out, FieldValue{Field: field, Value: value.Clone()})
			return true
		})
	})
	return out, found
}

// HDel removes fields from the hash at key and returns how many were
// present. The hash itself is removed once it has no fields left.
func (s *Store) HDel(key string, fields ...string) int64 {
	h, ok := s.hashes.Get(key)
	if !ok || !h.enter() {
		return 0
	}
	var removed int64
	for _, field := range fields {
		if h.fields.Delete(field) {
			removed++
		}
	}
	h.leave()

	if removed > 0 {
		unlinkIfEmpty(s.hashes, key, h)
	}
	return removed
}

// HLen returns the number of fields in the hash at key.
func (s *Store) HLen(key string) int64 {
	h, ok := s.hashes.Get(key)
	if !ok {
		return 0
	}
	return int64(h.fields.Count())
}
