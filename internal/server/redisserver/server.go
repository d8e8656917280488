package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/internal/telemetry/metric"
	"github.com/yndnr/meshkv/pkg/resp"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the plaintext listen address. Empty disables it.
	Addr string
	// TLSAddr is the TLS listen address. Empty disables it.
	TLSAddr string
	// TLSConfig is required when TLSAddr is set.
	TLSConfig *tls.Config
	// UnixSocket is a Unix domain socket path. Empty disables it.
	UnixSocket string

	// ReadTimeout bounds the time to receive the rest of a partly read request.
	ReadTimeout time.Duration
	// WriteTimeout bounds each reply flush.
	WriteTimeout time.Duration
	// IdleTimeout bounds the wait for the next request.
	IdleTimeout time.Duration

	// RateLimit is the maximum number of commands per second per
	// connection. 0 disables rate limiting.
	RateLimit int
	// RateBurst is the token bucket size. 0 means RateLimit.
	RateBurst int
	// MaxConnections caps concurrent clients. 0 means unlimited.
	MaxConnections int

	// Limits bounds decoded frames.
	Limits resp.Limits
	// MaxBufferSize caps unconsumed input per connection.
	MaxBufferSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:          "127.0.0.1:6379",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   5 * time.Minute,
		MaxBufferSize: 1 << 30,
	}
}

// ErrNoListener is returned by Start when no listener is configured.
var ErrNoListener = errors.New("redisserver: no listen address configured")

// ErrTLSConfigRequired is returned by Start when TLSAddr is set without a TLS config.
var ErrTLSConfigRequired = errors.New("redisserver: tls config required for tls listener")

// Server represents the RESP protocol server.
type Server struct {
	cfg     *Config
	store   *memory.Store
	decoder *resp.Decoder
	metrics *metric.Registry
	logger  *slog.Logger

	plainLn net.Listener
	tlsLn   net.Listener
	unixLn  net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	connsMu sync.Mutex
	conns   map[*conn]struct{}
	open    atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics registry. The global registry is used otherwise.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.metrics = r
		}
	}
}

// New creates a server over store.
func New(cfg *Config, store *memory.Store, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		decoder: resp.NewDecoder(cfg.Limits),
		metrics: metric.Global(),
		logger:  slog.Default(),
		conns:   make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the configured listeners and serves them in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Addr == "" && s.cfg.TLSAddr == "" && s.cfg.UnixSocket == "" {
		return ErrNoListener
	}
	if s.cfg.TLSAddr != "" && s.cfg.TLSConfig == nil {
		return ErrTLSConfigRequired
	}

	if err := s.listen(); err != nil {
		s.closeListeners()
		return err
	}

	s.running.Store(true)
	for _, ln := range s.listeners() {
		s.logger.Info("redis server listening",
			"network", ln.Addr().Network(),
			"address", ln.Addr().String(),
			"tls", ln == s.tlsLn)
		s.wg.Add(1)
		go func(ln net.Listener) {
			defer s.wg.Done()
			if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
				s.logger.Error("redis accept loop stopped", "address", ln.Addr().String(), "error", err)
			}
		}(ln)
	}
	return nil
}

func (s *Server) listen() error {
	if s.cfg.Addr != "" {
		ln, err := net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
		s.plainLn = ln
	}
	if s.cfg.TLSAddr != "" {
		ln, err := tls.Listen("tcp", s.cfg.TLSAddr, s.cfg.TLSConfig)
		if err != nil {
			return fmt.Errorf("listen tls %s: %w", s.cfg.TLSAddr, err)
		}
		s.tlsLn = ln
	}
	if s.cfg.UnixSocket != "" {
		// A socket file left by an unclean exit would make Listen fail.
		if err := os.Remove(s.cfg.UnixSocket); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale socket %s: %w", s.cfg.UnixSocket, err)
		}
		ln, err := net.Listen("unix", s.cfg.UnixSocket)
		if err != nil {
			return fmt.Errorf("listen unix %s: %w", s.cfg.UnixSocket, err)
		}
		s.unixLn = ln
	}
	return nil
}

func (s *Server) listeners() []net.Listener {
	var out []net.Listener
	for _, ln := range []net.Listener{s.plainLn, s.tlsLn, s.unixLn} {
		if ln != nil {
			out = append(out, ln)
		}
	}
	return out
}

func (s *Server) closeListeners() []error {
	var errs []error
	for _, ln := range s.listeners() {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errs
}

// Addr returns the plaintext listener address, or nil.
func (s *Server) Addr() net.Addr {
	if s.plainLn == nil {
		return nil
	}
	return s.plainLn.Addr()
}

// TLSAddr returns the TLS listener address, or nil.
func (s *Server) TLSAddr() net.Addr {
	if s.tlsLn == nil {
		return nil
	}
	return s.tlsLn.Addr()
}

// UnixAddr returns the Unix socket listener address, or nil.
func (s *Server) UnixAddr() net.Addr {
	if s.unixLn == nil {
		return nil
	}
	return s.unixLn.Addr()
}

// OpenConnections returns the number of connected clients.
func (s *Server) OpenConnections() int64 {
	return s.open.Load()
}

// Shutdown stops accepting, closes every client connection and waits for
// their goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	errs := s.closeListeners()

	// Under connsMu so a connection accepted concurrently is either
	// closed here or refused by register.
	s.connsMu.Lock()
	s.running.Store(false)
	for c := range s.conns {
		_ = c.close()
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return errors.Join(errs...)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}

		if max := s.cfg.MaxConnections; max > 0 && s.open.Load() >= int64(max) {
			s.reject(nc)
			continue
		}

		c := s.newConn(nc)
		if !s.register(c) {
			_ = c.close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.unregister(c)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) reject(nc net.Conn) {
	s.metrics.ConnRejected("max_connections")
	s.logger.Warn("connection rejected", "remote", remoteAddr(nc), "reason", "max_connections")
	_ = nc.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = nc.Write(resp.Encode(resp.SimpleError("ERR max number of clients reached")))
	_ = nc.Close()
}

// register tracks c for Shutdown. It returns false once Shutdown has
// begun; the caller then owns closing c.
func (s *Server) register(c *conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	s.open.Add(1)
	s.metrics.ConnOpened()
	return true
}

func (s *Server) unregister(c *conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, c)
	s.open.Add(-1)
	s.metrics.ConnClosed()
}
