// Package cmap provides concurrent string-keyed maps and sets for meshkv.
//
// The map is split into a power-of-two number of shards, each guarded by
// its own RWMutex. Keys are routed to shards with murmur3, so operations
// on keys in different shards never contend.
//
// Usage:
//
//	m := cmap.New[resp.Frame](cmap.WithShardCount(64))
//	m.Set("key", frame)
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete, Compute) use Lock. Callbacks passed to
// Compute and GetOrCreate run while the shard lock is held and must not
// call back into the same map.
package cmap
