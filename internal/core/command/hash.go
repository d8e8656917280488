package command

import (
	"sort"

	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/pkg/resp"
)

// HGet is HGET key field.
type HGet struct {
	Key   string
	Field string
}

func parseHGet(args [][]byte) (Command, error) {
	return HGet{Key: string(args[0]), Field: string(args[1])}, nil
}

func (HGet) Name() string { return "hget" }

func (c HGet) Execute(store *memory.Store) resp.Frame {
	if v, ok := store.HGet(c.Key, c.Field); ok {
		return v
	}
	return resp.NullBulk()
}

// HMGet is HMGET key field [field ...].
type HMGet struct {
	Key    string
	Fields []string
}

func parseHMGet(args [][]byte) (Command, error) {
	return HMGet{Key: string(args[0]), Fields: strs(args[1:])}, nil
}

func (HMGet) Name() string { return "hmget" }

func (c HMGet) Execute(store *memory.Store) resp.Frame {
	out := make([]resp.Frame, len(c.Fields))
	values, _ := store.HMGet(c.Key, c.Fields)
	for i := range out {
		if values != nil && values[i] != nil {
			out[i] = *values[i]
		} else {
			out[i] = resp.NullBulk()
		}
	}
	return resp.Array(out...)
}

// HMSet is HMSET key field value [field value ...].
type HMSet struct {
	Key   string
	Pairs []memory.FieldValue
}

func parseHMSet(args [][]byte) (Command, error) {
	rest := args[1:]
	pairs := make([]memory.FieldValue, 0, len(rest)/2)
	for i := 0; i+1 < len(rest); i += 2 {
		pairs = append(pairs, memory.FieldValue{
			Field: string(rest[i]),
			Value: resp.BulkString(rest[i+1]),
		})
	}
	return HMSet{Key: string(args[0]), Pairs: pairs}, nil
}

func (HMSet) Name() string { return "hmset" }

func (c HMSet) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.HMSet(c.Key, c.Pairs))
}

// HGetAll is HGETALL key. The reply alternates field and value with
// fields in ascending byte order.
type HGetAll struct {
	Key string
}

func parseHGetAll(args [][]byte) (Command, error) {
	return HGetAll{Key: string(args[0])}, nil
}

func (HGetAll) Name() string { return "hgetall" }

func (c HGetAll) Execute(store *memory.Store) resp.Frame {
	all, _ := store.HGetAll(c.Key)
	sort.Slice(all, func(i, j int) bool { return all[i].Field < all[j].Field })

	out := make([]resp.Frame, 0, 2*len(all))
	for _, fv := range all {
		out = append(out, resp.BulkText(fv.Field), fv.Value)
	}
	return resp.Array(out...)
}

// HDel is HDEL key field [field ...].
type HDel struct {
	Key    string
	Fields []string
}

func parseHDel(args [][]byte) (Command, error) {
	return HDel{Key: string(args[0]), Fields: strs(args[1:])}, nil
}

func (HDel) Name() string { return "hdel" }

func (c HDel) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.HDel(c.Key, c.Fields...))
}

// HLen is HLEN key.
type HLen struct {
	Key string
}

func parseHLen(args [][]byte) (Command, error) {
	return HLen{Key: string(args[0])}, nil
}

func (HLen) Name() string { return "hlen" }

func (c HLen) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.HLen(c.Key))
}
