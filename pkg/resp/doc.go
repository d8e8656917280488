// Package resp implements the RESP3 wire format used by meshkv.
//
// The package is split into three parts:
//
//   - frame.go: the Frame value covering all thirteen RESP3 shapes
//   - decode.go: a resumable decoder over a byte slice
//   - encode.go: a canonical encoder and an io.Writer adapter
//
// Decoding is stateless. Decode inspects the start of a buffer and
// reports one of three outcomes:
//
//	f, n, err := resp.Decode(buf)
//	switch {
//	case err == nil:
//		// f was decoded from buf[:n]
//	case errors.Is(err, resp.ErrIncomplete):
//		// read more bytes and retry; buf was not consumed
//	default:
//		// protocol error, the stream cannot be recovered
//	}
//
// The total size of the leading frame is computed before any child
// frame is allocated, so partial input never allocates and never
// consumes bytes.
package resp
