package client

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/meshkv/pkg/resp"
)

// ErrClosed is returned when using a closed or broken client.
var ErrClosed = errors.New("client: connection closed")

// ServerError is an error reply from the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// Client is a single connection to a meshkv server. It is safe for
// concurrent use; requests are serialized.
type Client struct {
	addr    string
	opts    options
	conn    net.Conn
	bw      *bufio.Writer
	w       *resp.Writer
	buf     *resp.Buffer
	decoder *resp.Decoder

	mu     sync.Mutex
	broken bool
}

type options struct {
	dialTimeout time.Duration
	timeout     time.Duration
	tlsConfig   *tls.Config
	limits      resp.Limits
}

// Option configures a Client.
type Option func(*options)

// WithDialTimeout bounds connection setup. Default 5s.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithTimeout bounds each request when the context has no deadline.
// Zero disables it. Default 30s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTLS connects over TLS.
func WithTLS(cfg *tls.Config) Option {
	return func(o *options) { o.tlsConfig = cfg }
}

// WithLimits bounds decoded replies.
func WithLimits(l resp.Limits) Option {
	return func(o *options) { o.limits = l }
}

func buildOptions(opts []Option) options {
	o := options{
		dialTimeout: 5 * time.Second,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dial connects to the server at addr.
func Dial(addr string, opts ...Option) (*Client, error) {
	return DialContext(context.Background(), addr, opts...)
}

// UnixPrefix marks an address as a Unix socket path, e.g.
// "unix:/run/meshkv.sock".
const UnixPrefix = "unix:"

// DialContext connects to the server at addr using ctx for the dial.
func DialContext(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)

	network, target := "tcp", addr
	if path, ok := strings.CutPrefix(addr, UnixPrefix); ok {
		network, target = "unix", path
	}

	d := &net.Dialer{Timeout: o.dialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if o.tlsConfig != nil && network == "tcp" {
		td := &tls.Dialer{NetDialer: d, Config: o.tlsConfig}
		conn, err = td.DialContext(ctx, network, target)
	} else {
		conn, err = d.DialContext(ctx, network, target)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	bw := bufio.NewWriter(conn)
	return &Client{
		addr:    addr,
		opts:    o,
		conn:    conn,
		bw:      bw,
		w:       resp.NewWriter(bw),
		buf:     resp.NewBuffer(0),
		decoder: resp.NewDecoder(o.limits),
	}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string { return c.addr }

// Do sends one command and waits for its reply. An error reply is
// returned as both the frame and a *ServerError.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	replies, err := c.Pipeline(ctx, [][]string{args})
	if err != nil {
		return resp.Frame{}, err
	}
	return replies[0], replyError(replies[0])
}

// Pipeline sends every command before reading any reply and returns the
// replies in order. Error replies are returned as frames, not errors.
func (c *Client) Pipeline(ctx context.Context, cmds [][]string) ([]resp.Frame, error) {
	if len(cmds) == 0 {
		return nil, nil
	}
	for _, args := range cmds {
		if len(args) == 0 {
			return nil, errors.New("client: empty command")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok && c.opts.timeout > 0 {
		deadline = time.Now().Add(c.opts.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, c.fail(err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	for _, args := range cmds {
		if err := c.w.WriteCommand(args...); err != nil {
			return nil, c.fail(ctxErr(ctx, err))
		}
	}
	if err := c.bw.Flush(); err != nil {
		return nil, c.fail(ctxErr(ctx, err))
	}

	replies := make([]resp.Frame, 0, len(cmds))
	for len(replies) < len(cmds) {
		f, err := c.read()
		if err != nil {
			return nil, c.fail(ctxErr(ctx, err))
		}
		replies = append(replies, f)
	}
	return replies, nil
}

func (c *Client) read() (resp.Frame, error) {
	for {
		f, err := c.decoder.Next(c.buf)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return resp.Frame{}, err
		}
		if _, err := c.buf.Fill(c.conn); err != nil {
			return resp.Frame{}, err
		}
	}
}

// fail marks the connection unusable and closes it.
func (c *Client) fail(err error) error {
	c.broken = true
	_ = c.conn.Close()
	return err
}

// Broken reports whether the client can no longer be used.
func (c *Client) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil
	}
	c.broken = true
	return c.conn.Close()
}

func ctxErr(ctx context.Context, err error) error {
	if ctxe := ctx.Err(); ctxe != nil {
		return ctxe
	}
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return context.DeadlineExceeded
	}
	return err
}

func replyError(f resp.Frame) error {
	if f.IsError() {
		return &ServerError{Message: f.Str}
	}
	return nil
}
