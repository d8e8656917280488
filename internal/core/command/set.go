package command

import (
	"sort"

	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/pkg/resp"
)

// SAdd is SADD key member [member ...].
type SAdd struct {
	Key     string
	Members []string
}

func parseSAdd(args [][]byte) (Command, error) {
	return SAdd{Key: string(args[0]), Members: strs(args[1:])}, nil
}

func (SAdd) Name() string { return "sadd" }

func (c SAdd) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.SAdd(c.Key, c.Members...))
}

// SMembers is SMEMBERS key. Members are returned sorted.
type SMembers struct {
	Key string
}

func parseSMembers(args [][]byte) (Command, error) {
	return SMembers{Key: string(args[0])}, nil
}

func (SMembers) Name() string { return "smembers" }

func (c SMembers) Execute(store *memory.Store) resp.Frame {
	members, _ := store.SMembers(c.Key)
	sort.Strings(members)

	out := make([]resp.Frame, len(members))
	for i, m := range members {
		out[i] = resp.BulkText(m)
	}
	return resp.Array(out...)
}

// SIsMember is SISMEMBER key member.
type SIsMember struct {
	Key    string
	Member string
}

func parseSIsMember(args [][]byte) (Command, error) {
	return SIsMember{Key: string(args[0]), Member: string(args[1])}, nil
}

func (SIsMember) Name() string { return "sismember" }

func (c SIsMember) Execute(store *memory.Store) resp.Frame {
	if store.SIsMember(c.Key, c.Member) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

// SRem is SREM key member [member ...].
type SRem struct {
	Key     string
	Members []string
}

func parseSRem(args [][]byte) (Command, error) {
	return SRem{Key: string(args[0]), Members: strs(args[1:])}, nil
}

func (SRem) Name() string { return "srem" }

func (c SRem) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.SRem(c.Key, c.Members...))
}

// SCard is SCARD key.
type SCard struct {
	Key string
}

func parseSCard(args [][]byte) (Command, error) {
	return SCard{Key: string(args[0])}, nil
}

func (SCard) Name() string { return "scard" }

func (c SCard) Execute(store *memory.Store) resp.Frame {
	return resp.Integer(store.SCard(c.Key))
}
