package command

import (
	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/pkg/resp"
)

// Del is DEL key [key ...]. It removes the key from every keyspace.
type Del struct {
	Keys []string
}

func parseDel(args [][]byte) (Command, error) {
	return Del{Keys: strs(args)}, nil
}

func (Del) Name() string { return "del" }

func (c Del) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.Del(c.Keys...))
}

// Exists is EXISTS key [key ...].
type Exists struct {
	Keys []string
}

func parseExists(args [][]byte) (Command, error) {
	return Exists{Keys: strs(args)}, nil
}

func (Exists) Name() string { return "exists" }

func (c Exists) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.Exists(c.Keys...))
}

// DBSize is DBSIZE.
type DBSize struct{}

func parseDBSize([][]byte) (Command, error) { return DBSize{}, nil }

func (DBSize) Name() string { return "dbsize" }

func (DBSize) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.DBSize())
}
