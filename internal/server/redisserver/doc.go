// Package redisserver serves the meshkv store over RESP3.
//
// Each accepted connection runs in its own goroutine that fills a
// resp.Buffer from the socket, decodes every complete frame, executes the
// command against the shared memory.Store, and writes the encoded reply.
// Replies for a batch of pipelined requests are flushed together, in
// request order.
//
// Malformed input is fatal for the connection: the server writes a
// best-effort "-ERR Protocol error" reply and closes it. Command errors
// are ordinary replies and the connection continues.
//
// Lines starting with a letter are accepted as inline commands
// ("PING\r\n") for telnet-style clients.
package redisserver
