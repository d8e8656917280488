package memory

import (
	"sync"

	"github.com/yndnr/meshkv/pkg/cmap"
	"github.com/yndnr/meshkv/pkg/resp"
)

// gate coordinates access to one hash or set value.
//
// Single-key writers hold it shared and rely on the inner shard locks,
// so they run in parallel. Snapshot readers and removal hold it
// exclusively. Once dead is set the value has been unlinked from the
// keyspace and writers must look it up again.
type gate struct {
	mu   sync.RWMutex
	dead bool
}

// enter acquires the gate for a writer. It fails if the value is dead.
func (g *gate) enter() bool {
	g.mu.RLock()
	if g.dead {
		g.mu.RUnlock()
		return false
	}
	return true
}

func (g *gate) leave() { g.mu.RUnlock() }

// hashValue is the value stored under a hash key.
type hashValue struct {
	gate
	fields *cmap.Map[resp.Frame]
}

func newHashValue(shards int) func() *hashValue {
	return func() *hashValue {
		return &hashValue{fields: cmap.New[resp.Frame](cmap.WithShardCount(shards))}
	}
}

// setValue is the value stored under a set key.
type setValue struct {
	gate
	members *cmap.Set
}

func newSetValue(shards int) func() *setValue {
	return func() *setValue {
		return &setValue{members: cmap.NewSet(cmap.WithShardCount(shards))}
	}
}

// gated is implemented by hashValue and setValue.
type gated interface {
	enter() bool
	leave()
	lock()
	unlock()
	kill()
	isDead() bool
	size() int
}

func (g *gate) lock()        { g.mu.Lock() }
func (g *gate) unlock()      { g.mu.Unlock() }
func (g *gate) kill()        { g.dead = true }
func (g *gate) isDead() bool { return g.dead }

func (h *hashValue) size() int { return h.fields.Count() }
func (s *setValue) size() int  { return s.members.Len() }

// write runs fn against the live value stored at key, creating it when
// missing.
func write[T gated](m *cmap.Map[T], key string, create func() T, fn func(T)) {
	for {
		v, _ := m.GetOrCreate(key, create)
		if !v.enter() {
			continue
		}
		fn(v)
		v.leave()
		return
	}
}

// snapshot runs fn against the value at key with writers excluded.
// It reports false when the key does not exist.
func snapshot[T gated](m *cmap.Map[T], key string, fn func(T)) bool {
	for {
		v, ok := m.Get(key)
		if !ok {
			return false
		}
		v.lock()
		if v.isDead() {
			v.unlock()
			continue
		}
		fn(v)
		v.unlock()
		return true
	}
}

// unlink removes the value at key and marks it dead.
func unlink[T gated](m *cmap.Map[T], key string) bool {
	v, ok := m.Pop(key)
	if !ok {
		return false
	}
	v.lock()
	v.kill()
	v.unlock()
	return true
}

// unlinkIfEmpty removes v from key if it holds no entries. Hashes and
// sets that become empty disappear, as in Redis.
func unlinkIfEmpty[T gated](m *cmap.Map[T], key string, v T) {
	v.lock()
	defer v.unlock()
	if v.isDead() || v.size() > 0 {
		return
	}
	v.kill()
	m.Compute(key, func(cur T, exists bool) (T, bool) {
		if exists && any(cur) == any(v) {
			return cur, false
		}
		return cur, exists
	})
}
