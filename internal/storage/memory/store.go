package memory

import (
	"github.com/yndnr/meshkv/pkg/cmap"
	"github.com/yndnr/meshkv/pkg/resp"
)

// DefaultFieldShardCount is the number of shards in each hash or set value.
// Most values are small, so it is far lower than the keyspace default.
const DefaultFieldShardCount = 8

// Store is the shared in-memory backend.
type Store struct {
	strings *cmap.Map[resp.Frame]
	hashes  *cmap.Map[*hashValue]
	sets    *cmap.Map[*setValue]

	shardCount      int
	fieldShardCount int
}

// Option configures the Store.
type Option func(*Store)

// WithShardCount sets the shard count of each keyspace.
func WithShardCount(n int) Option {
	return func(s *Store) {
		s.shardCount = n
	}
}

// WithFieldShardCount sets the shard count of each hash or set value.
func WithFieldShardCount(n int) Option {
	return func(s *Store) {
		s.fieldShardCount = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		shardCount:      cmap.DefaultShardCount,
		fieldShardCount: DefaultFieldShardCount,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.strings = cmap.New[resp.Frame](cmap.WithShardCount(s.shardCount))
	s.hashes = cmap.New[*hashValue](cmap.WithShardCount(s.shardCount))
	s.sets = cmap.New[*setValue](cmap.WithShardCount(s.shardCount))
	// cmap normalises invalid counts; report what it actually uses.
	s.shardCount = s.strings.ShardCount()
	return s
}

// ============================================================================
// Strings
// ============================================================================

// Get returns a copy of the string value at key.
func (s *Store) Get(key string) (resp.Frame, bool) {
	f, ok := s.strings.Get(key)
	if !ok {
		return resp.Frame{}, false
	}
	return f.Clone(), true
}

// Set stores a copy of value at key, replacing any previous value.
func (s *Store) Set(key string, value resp.Frame) {
	s.strings.Set(key, value.Clone())
}

// ============================================================================
// Keyspace
// ============================================================================

// Del removes each key from every keyspace and returns how many keys
// existed in at least one of them. Repeated keys count once.
func (s *Store) Del(keys ...string) int64 {
	var removed int64
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		hit := s.strings.Delete(key)
		if unlink(s.hashes, key) {
			hit = true
		}
		if unlink(s.sets, key) {
			hit = true
		}
		if hit {
			removed++
		}
	}
	return removed
}

// Exists returns how many of keys exist in any keyspace. Repeated keys
// are counted each time, as in Redis.
func (s *Store) Exists(keys ...string) int64 {
	var n int64
	for _, key := range keys {
		if s.strings.Has(key) || s.hashes.Has(key) || s.sets.Has(key) {
			n++
		}
	}
	return n
}

// DBSize returns the number of entries across all keyspaces. A key that
// lives in two keyspaces is counted twice.
func (s *Store) DBSize() int64 {
	return int64(s.strings.Count() + s.hashes.Count() + s.sets.Count())
}

// Stats describes the store contents.
type Stats struct {
	Strings    int `json:"strings"`
	Hashes     int `json:"hashes"`
	Sets       int `json:"sets"`
	ShardCount int `json:"shard_count"`
	// MaxShardKeys is the key count of the fullest shard in any keyspace.
	// Far above the average it points at skewed keys.
	MaxShardKeys int `json:"max_shard_keys"`
}

// Stats returns the number of keys per keyspace.
func (s *Store) Stats() Stats {
	return Stats{
		Strings:      s.strings.Count(),
		Hashes:       s.hashes.Count(),
		Sets:         s.sets.Count(),
		ShardCount:   s.shardCount,
		MaxShardKeys: max(maxShard(s.strings.Stats()), maxShard(s.hashes.Stats()), maxShard(s.sets.Stats())),
	}
}

func maxShard(stats []cmap.ShardStats) int {
	n := 0
	for _, st := range stats {
		n = max(n, st.Count)
	}
	return n
}
