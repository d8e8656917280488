package client

import (
	"context"
	"errors"

	pool "github.com/jolestar/go-commons-pool/v2"

	"github.com/yndnr/meshkv/pkg/resp"
)

// PoolConfig sizes a Pool.
type PoolConfig struct {
	// MaxActive caps open connections. Default 8.
	MaxActive int
	// MaxIdle caps connections kept for reuse. Default MaxActive.
	MaxIdle int
}

// Pool is a bounded pool of Clients to one server.
type Pool struct {
	addr string
	p    *pool.ObjectPool
}

type connectionFactory struct {
	addr string
	opts []Option
}

func (f connectionFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := DialContext(ctx, f.addr, f.opts...)
	if err != nil {
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f connectionFactory) DestroyObject(ctx context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*Client)
	if !ok {
		return errors.New("client: pooled object type mismatch")
	}
	return c.Close()
}

func (f connectionFactory) ValidateObject(ctx context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*Client)
	return ok && !c.Broken()
}

func (f connectionFactory) ActivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

func (f connectionFactory) PassivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

// NewPool creates a pool of connections to addr. Connections are dialed
// lazily.
func NewPool(ctx context.Context, addr string, cfg PoolConfig, opts ...Option) *Pool {
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = 8
	}
	if cfg.MaxIdle <= 0 || cfg.MaxIdle > cfg.MaxActive {
		cfg.MaxIdle = cfg.MaxActive
	}

	pc := pool.NewDefaultPoolConfig()
	pc.MaxTotal = cfg.MaxActive
	pc.MaxIdle = cfg.MaxIdle
	pc.TestOnBorrow = true
	pc.TestOnReturn = true

	return &Pool{
		addr: addr,
		p:    pool.NewObjectPool(ctx, connectionFactory{addr: addr, opts: opts}, pc),
	}
}

// Get borrows a client, waiting while all are in use.
func (p *Pool) Get(ctx context.Context) (*Client, error) {
	obj, err := p.p.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	return obj.(*Client), nil
}

// Put returns a client to the pool. Broken clients are discarded.
func (p *Pool) Put(ctx context.Context, c *Client) error {
	if c.Broken() {
		return p.p.InvalidateObject(ctx, c)
	}
	return p.p.ReturnObject(ctx, c)
}

// Do runs one command on a pooled client.
func (p *Pool) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return resp.Frame{}, err
	}
	f, err := c.Do(ctx, args...)
	if perr := p.Put(ctx, c); perr != nil && err == nil {
		err = perr
	}
	return f, err
}

// Active returns the number of borrowed clients.
func (p *Pool) Active() int {
	return p.p.GetNumActive()
}

// Idle returns the number of clients waiting for reuse.
func (p *Pool) Idle() int {
	return p.p.GetNumIdle()
}

// Close closes every idle client and refuses further borrowing.
func (p *Pool) Close(ctx context.Context) {
	p.p.Close(ctx)
}
