package command

import (
	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/pkg/resp"
)

// Get is GET key.
type Get struct {
	Key string
}

func parseGet(args [][]byte) (Command, error) {
	return Get{Key: string(args[0])}, nil
}

func (Get) Name() string { return "get" }

func (c Get) Execute(store *memory.Store) resp.Frame {
	if v, ok := store.Get(c.Key); ok {
		return v
	}
	return resp.NullBulk()
}

// Set is SET key value.
type Set struct {
	Key   string
	Value resp.Frame
}

func parseSet(args [][]byte) (Command, error) {
	return Set{Key: string(args[0]), Value: resp.BulkString(args[1])}, nil
}

func (Set) Name() string { return "set" }

func (c Set) Execute(store *memory.Store) resp.Frame {
	store.Set(c.Key, c.Value)
	return resp.OK()
}
