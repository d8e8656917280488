// Package cmap provides a concurrent-safe sharded map.
package cmap

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration.
// Note: This acquires locks shard by shard, so the view may not be consistent.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// GetOrCreate returns the value for key, storing the result of create
// first when the key is absent. create only runs when the key is absent.
func (m *Map[V]) GetOrCreate(key string, create func() V) (V, bool) {
	shard := m.getShard(key)

	shard.mu.RLock()
	existing, ok := shard.items[key]
	shard.mu.RUnlock()
	if ok {
		return existing, true
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if existing, ok := shard.items[key]; ok {
		return existing, true
	}
	value := create()
	shard.items[key] = value
	return value, false
}

// SetIfAbsent sets the value only if the key does not exist.
// Returns true if the value was set, false if the key already exists.
func (m *Map[V]) SetIfAbsent(key string, value V) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.items[key]; ok {
		return false
	}

	shard.items[key] = value
	return true
}

// Swap stores value and returns the previous value, if any.
func (m *Map[V]) Swap(key string, value V) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	prev, ok := shard.items[key]
	shard.items[key] = value
	return prev, ok
}

// Pop removes a key and returns its value.
// Returns the value and true if the key existed, zero value and false otherwise.
func (m *Map[V]) Pop(key string) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	val, ok := shard.items[key]
	if ok {
		delete(shard.items, key)
	}
	return val, ok
}

// Compute atomically replaces the value for key with the result of fn.
// fn receives the current value and whether it exists; if it returns
// keep=false the key is removed.
func (m *Map[V]) Compute(key string, fn func(value V, exists bool) (V, bool)) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	existing, exists := shard.items[key]
	value, keep := fn(existing, exists)
	if !keep {
		delete(shard.items, key)
		var zero V
		return zero, false
	}
	shard.items[key] = value
	return value, true
}

// ShardCount returns the number of shards.
func (m *Map[V]) ShardCount() int {
	return len(m.shards)
}

// ShardStats returns statistics about each shard.
type ShardStats struct {
	Index int
	Count int
}

// Stats returns statistics about all shards.
func (m *Map[V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, shard := range m.shards {
		shard.mu.RLock()
		stats[i] = ShardStats{
			Index: i,
			Count: len(shard.items),
		}
		shard.mu.RUnlock()
	}
	return stats
}
