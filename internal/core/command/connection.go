package command

import (
	"strconv"

	"github.com/yndnr/meshkv/internal/infra/buildinfo"
	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/pkg/resp"
)

// Connection-level commands. The server inspects Hello and Quit after
// execution to update connection state.

// Ping is PING [message].
type Ping struct {
	Message []byte // nil when absent
}

func parsePing(args [][]byte) (Command, error) {
	if len(args) == 0 {
		return Ping{}, nil
	}
	return Ping{Message: args[0]}, nil
}

func (Ping) Name() string { return "ping" }

func (c Ping) Execute(*memory.Store) resp.Frame {
	if c.Message == nil {
		return resp.SimpleString("PONG")
	}
	return resp.BulkString(c.Message)
}

// Echo is ECHO message.
type Echo struct {
	Message []byte
}

func parseEcho(args [][]byte) (Command, error) {
	return Echo{Message: args[0]}, nil
}

func (Echo) Name() string { return "echo" }

func (c Echo) Execute(*memory.Store) resp.Frame {
	return resp.BulkString(c.Message)
}

// Supported protocol versions for HELLO.
const (
	Proto2 = 2
	Proto3 = 3
)

// Hello is HELLO [protover]. Proto is 0 when the client did not ask for a
// version; the server fills in the connection's current one.
type Hello struct {
	Proto int
}

func parseHello(args [][]byte) (Command, error) {
	if len(args) == 0 {
		return Hello{}, nil
	}
	v, err := strconv.Atoi(string(args[0]))
	if err != nil {
		return nil, invalidValue("protocol version is not an integer")
	}
	if v != Proto2 && v != Proto3 {
		return nil, invalidValue("unsupported protocol version %d", v)
	}
	return Hello{Proto: v}, nil
}

func (Hello) Name() string { return "hello" }

// Execute returns the server handshake: a map under RESP3, a flat array
// of alternating keys and values under RESP2.
func (c Hello) Execute(*memory.Store) resp.Frame {
	proto := c.Proto
	if proto == 0 {
		proto = Proto3
	}
	pairs := []resp.Pair{
		{Key: resp.BulkText("server"), Value: resp.BulkText("meshkv")},
		{Key: resp.BulkText("version"), Value: resp.BulkText(buildinfo.Version)},
		{Key: resp.BulkText("proto"), Value: resp.Integer(int64(proto))},
		{Key: resp.BulkText("mode"), Value: resp.BulkText("standalone")},
		{Key: resp.BulkText("role"), Value: resp.BulkText("master")},
		{Key: resp.BulkText("modules"), Value: resp.Array()},
	}
	if proto == Proto3 {
		return resp.Map(pairs...)
	}
	flat := make([]resp.Frame, 0, 2*len(pairs))
	for _, p := range pairs {
		flat = append(flat, p.Key, p.Value)
	}
	return resp.Array(flat...)
}

// Quit is QUIT. The server closes the connection after the reply.
type Quit struct{}

func parseQuit([][]byte) (Command, error) { return Quit{}, nil }

func (Quit) Name() string { return "quit" }

func (Quit) Execute(*memory.Store) resp.Frame { return resp.OK() }
