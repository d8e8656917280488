package command

import (
	"sort"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/pkg/resp"
)

// Command is a parsed request ready to run.
type Command interface {
	// Name returns the lower-case command name.
	Name() string
	// Execute runs the command and returns its reply. It never fails;
	// errors are reported as SimpleError frames.
	Execute(store *memory.Store) resp.Frame
}

// arity bounds the number of arguments after the name. max < 0 means
// unbounded.
type arity struct {
	min, max int
	odd      bool // argument count must be odd
}

func (a arity) accepts(n int) bool {
	if n < a.min || (a.max >= 0 && n > a.max) {
		return false
	}
	return !a.odd || n%2 == 1
}

type entry struct {
	arity arity
	parse func(args [][]byte) (Command, error)
}

var table = map[string]entry{
	"get":       {arity{1, 1, false}, parseGet},
	"set":       {arity{2, 2, false}, parseSet},
	"hget":      {arity{2, 2, false}, parseHGet},
	"hmget":     {arity{2, -1, false}, parseHMGet},
	"hmset":     {arity{3, -1, true}, parseHMSet},
	"hgetall":   {arity{1, 1, false}, parseHGetAll},
	"hdel":      {arity{2, -1, false}, parseHDel},
	"hlen":      {arity{1, 1, false}, parseHLen},
	"sadd":      {arity{2, -1, false}, parseSAdd},
	"smembers":  {arity{1, 1, false}, parseSMembers},
	"sismember": {arity{2, 2, false}, parseSIsMember},
	"srem":      {arity{2, -1, false}, parseSRem},
	"scard":     {arity{1, 1, false}, parseSCard},
	"del":       {arity{1, -1, false}, parseDel},
	"exists":    {arity{1, -1, false}, parseExists},
	"dbsize":    {arity{0, 0, false}, parseDBSize},
	"ping":      {arity{0, 1, false}, parsePing},
	"echo":      {arity{1, 1, false}, parseEcho},
	"hello":     {arity{0, 1, false}, parseHello},
	"quit":      {arity{0, 0, false}, parseQuit},
}

// Known reports whether name (lower-case) is a supported command.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// Names returns every supported command name in sorted order.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse validates a request frame and builds the matching command.
func Parse(f resp.Frame) (Command, error) {
	if f.Kind != resp.KindArray || f.IsNull {
		return nil, wrongType("request must be an array of bulk strings, got %s", f.Kind)
	}
	if len(f.Elems) == 0 {
		return nil, &Error{Kind: KindWrongArity, Message: "empty command"}
	}

	args := make([][]byte, len(f.Elems))
	for i, e := range f.Elems {
		if e.Kind != resp.KindBulkString || e.IsNull {
			return nil, wrongType("argument %d must be a bulk string, got %s", i, e.Kind)
		}
		args[i] = e.Bulk
	}

	name, err := foldName(args[0])
	if err != nil {
		return nil, err
	}
	ent, ok := table[name]
	if !ok {
		return nil, unknownCommand(string(args[0]))
	}
	if !ent.arity.accepts(len(args) - 1) {
		return nil, wrongArity(name)
	}
	return ent.parse(args[1:])
}

// Dispatch parses f and executes it against store. Parse failures
// become error replies.
func Dispatch(store *memory.Store, f resp.Frame) resp.Frame {
	cmd, err := Parse(f)
	if err != nil {
		return ErrorFrame(err)
	}
	return cmd.Execute(store)
}

// foldName decodes a command name as UTF-8 and lower-cases it.
func foldName(b []byte) (string, error) {
	if len(b) == 0 || !utf8.Valid(b) {
		return "", &Error{Kind: KindInvalidName, Message: "invalid command name"}
	}
	return cases.Lower(language.Und).String(string(b)), nil
}

func strs(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}
