// Package memory provides the in-memory storage backend for meshkv.
//
// It keeps three independent keyspaces, all built on pkg/cmap:
//
//   - Strings: key -> resp.Frame
//   - Hashes: key -> (field -> resp.Frame)
//   - Sets: key -> set of members
//
// The same key may exist in more than one keyspace; each command only
// looks at the keyspace its name implies.
//
// Thread Safety:
//
// Operations on different keys land on different shards and do not
// contend. Hash and set values are themselves sharded, so writers to
// different fields of one hash proceed in parallel. Whole-value reads
// (HGETALL, HMGET, SMEMBERS) briefly exclude writers of that key to
// return a consistent snapshot.
//
// Frames returned by the store are deep copies; callers may keep or
// modify them freely.
package memory
