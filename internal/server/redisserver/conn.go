package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/meshkv/internal/core/command"
	"github.com/yndnr/meshkv/internal/telemetry/logger"
	"github.com/yndnr/meshkv/internal/telemetry/metric"
	"github.com/yndnr/meshkv/pkg/resp"
)

// conn is one client connection and its protocol state.
type conn struct {
	id      string
	ctx     context.Context
	netConn net.Conn
	buf     *resp.Buffer
	bw      *bufio.Writer
	w       *resp.Writer
	logger  *slog.Logger
	limiter *rate.Limiter

	// proto is the negotiated protocol version, changed by HELLO.
	proto int

	closed atomic.Bool
}

func (s *Server) newConn(nc net.Conn) *conn {
	id := ulid.Make().String()
	bw := bufio.NewWriter(&countingWriter{w: nc, metrics: s.metrics})
	c := &conn{
		id:      id,
		netConn: nc,
		buf:     resp.NewBuffer(s.cfg.MaxBufferSize),
		bw:      bw,
		w:       resp.NewWriter(bw),
		logger:  s.logger.With("remote", remoteAddr(nc)),
		proto:   command.Proto3,
	}
	if s.cfg.RateLimit > 0 {
		burst := s.cfg.RateBurst
		if burst <= 0 {
			burst = s.cfg.RateLimit
		}
		c.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst)
	}
	return c
}

// remoteAddr names the peer for logs. Unix socket peers have no address.
func remoteAddr(nc net.Conn) string {
	if a := nc.RemoteAddr(); a != nil && a.String() != "" {
		return a.String()
	}
	return nc.LocalAddr().Network()
}

func (c *conn) close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// countingWriter feeds the bytes-written counter.
type countingWriter struct {
	w       io.Writer
	metrics *metric.Registry
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.metrics.AddBytesWritten(n)
	return n, err
}

func (s *Server) serveConn(ctx context.Context, c *conn) {
	c.ctx = logger.WithConnID(ctx, c.id)
	defer c.close()
	c.logger.DebugContext(c.ctx, "connection opened")
	defer c.logger.DebugContext(c.ctx, "connection closed")

	for {
		// Run every complete request already buffered before reading again.
		for c.buf.Len() > 0 {
			f, err := s.next(c)
			if errors.Is(err, resp.ErrIncomplete) {
				break
			}
			if err != nil {
				s.protocolError(c, err)
				return
			}

			reply, quit := s.handle(c, f)
			if err := c.w.WriteFrame(reply); err != nil {
				return
			}
			if quit {
				_ = s.flush(c)
				return
			}
		}

		if c.bw.Buffered() > 0 {
			if err := s.flush(c); err != nil {
				c.logger.DebugContext(c.ctx, "write failed", "error", err)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		// Idle connections may wait longer than a client that stopped
		// mid-request.
		timeout := s.cfg.IdleTimeout
		if c.buf.Len() > 0 {
			timeout = s.cfg.ReadTimeout
		}
		if timeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return
			}
		}

		n, err := c.buf.Fill(c.netConn)
		s.metrics.AddBytesRead(n)
		if err != nil {
			if errors.Is(err, resp.ErrBufferFull) {
				s.protocolError(c, err)
				return
			}
			if n > 0 && errors.Is(err, io.EOF) {
				// Serve what arrived with the EOF, then stop on the next read.
				continue
			}
			var netErr net.Error
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			case errors.As(err, &netErr) && netErr.Timeout():
				c.logger.DebugContext(c.ctx, "connection timed out")
			default:
				c.logger.DebugContext(c.ctx, "connection read error", "error", err)
			}
			return
		}
	}
}

// next decodes one request from the connection buffer.
func (s *Server) next(c *conn) (resp.Frame, error) {
	if isInline(c.buf.Bytes()[0]) {
		return readInline(c.buf)
	}
	return s.decoder.Next(c.buf)
}

// handle runs one request and reports whether the connection should be
// closed after the reply.
func (s *Server) handle(c *conn, f resp.Frame) (resp.Frame, bool) {
	start := time.Now()

	if c.limiter != nil && !c.limiter.Allow() {
		s.metrics.RateLimited.Inc()
		return resp.SimpleError("ERR rate limit exceeded"), false
	}

	cmd, err := command.Parse(f)
	if err != nil {
		s.metrics.RecordCommand("unknown", metric.ResultError, time.Since(start))
		c.logger.DebugContext(c.ctx, "command rejected", "error", err)
		return command.ErrorFrame(err), false
	}

	quit := false
	switch v := cmd.(type) {
	case command.Hello:
		if v.Proto == 0 {
			v.Proto = c.proto
		}
		c.proto = v.Proto
		cmd = v
	case command.Quit:
		quit = true
	}

	reply := cmd.Execute(s.store)

	result := metric.ResultOK
	if reply.IsError() {
		result = metric.ResultError
	}
	s.metrics.RecordCommand(cmd.Name(), result, time.Since(start))
	return reply, quit
}

func (s *Server) flush(c *conn) error {
	if s.cfg.WriteTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	return c.bw.Flush()
}

// protocolError reports malformed input to the client and logs it. The
// caller closes the connection.
func (s *Server) protocolError(c *conn, err error) {
	reason := protocolReason(err)
	s.metrics.RecordProtocolError(reason)
	c.logger.WarnContext(c.ctx, "protocol error", "reason", reason, "error", err)

	msg := "ERR Protocol error: " + reason
	var pe *resp.ProtocolError
	if errors.As(err, &pe) {
		msg = "ERR Protocol error: " + pe.Err.Error()
	}
	// Replies to earlier requests in the batch are still buffered and go out first.
	if c.w.WriteFrame(resp.SimpleError(msg)) == nil {
		_ = s.flush(c)
	}
}

func protocolReason(err error) string {
	var pe *resp.ProtocolError
	switch {
	case errors.As(err, &pe):
		return pe.Reason()
	case errors.Is(err, resp.ErrBufferFull):
		return "buffer_full"
	case errors.Is(err, errInlineTooLong):
		return "inline_too_long"
	default:
		return "unknown"
	}
}
