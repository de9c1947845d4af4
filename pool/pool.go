// Package pool implements the client-side connection pool: a bounded set
// of warm TCP connections to one kvstore server, reused across requests
// instead of dialing fresh for each one.
package pool

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/aistorehq/kvstore/config"
	"github.com/aistorehq/kvstore/hk"
	"github.com/aistorehq/kvstore/internal/debug"
	"github.com/aistorehq/kvstore/internal/mono"
	"github.com/aistorehq/kvstore/internal/nlog"
	"github.com/aistorehq/kvstore/stats"
)

// checkoutPollInterval is how often a blocked Get rechecks for a freed
// connection while waiting for one to become available.
const checkoutPollInterval = 100 * time.Millisecond

// ErrCheckoutTimeout is returned by Get when the pool is at capacity and
// no connection was released back to it before ConnectionTimeout elapsed.
var ErrCheckoutTimeout = errors.New("pool: checkout timed out waiting for a connection")

// Conn is a pooled connection. It must be returned to its Pool via
// Release (on success) or Drop (after any I/O error) exactly once.
type Conn struct {
	net.Conn
	pool    *Pool
	idleAt  int64 // mono.NanoTime() reading, valid only while idle
	dropped bool
}

// Release returns a healthy connection to the idle list. Calling it more
// than once, or after Drop, is a no-op.
func (c *Conn) Release() {
	if c.dropped {
		return
	}
	c.pool.release(c)
}

// Drop closes a connection that failed an I/O operation instead of
// returning it to the pool, and lets the pool open a replacement on the
// next Get.
func (c *Conn) Drop() {
	if c.dropped {
		return
	}
	c.dropped = true
	c.Conn.Close()
	c.pool.forget()
}

// Pool owns up to MaxConnections connections to a single address.
type Pool struct {
	cfg   config.ClientConfig
	stats *stats.Registry
	hk    *hk.Registry

	mu    sync.Mutex
	idle  []*Conn
	size  int
	ident string

	closed atomic.Bool
}

// New creates a Pool for cfg, starts its idle-timeout housekeeping task,
// and pre-warms it with up to MinConnections idle connections so that an
// unreachable server is logged at construction time rather than on the
// first caller's Get. Close must be called to stop the housekeeping task
// when the pool is no longer needed.
func New(cfg config.ClientConfig, stats *stats.Registry) *Pool {
	p := &Pool{cfg: cfg, stats: stats, hk: hk.New()}
	p.ident = fmt.Sprintf("pool(%s:%d)", cfg.Host, cfg.Port)
	go p.hk.Run()
	p.hk.Reg(p.ident+"-idle-evict", p.evictIdle, cfg.IdleTimeout)
	p.preWarm()
	return p
}

// preWarm dials up to MinConnections idle connections. It stops at the
// first dial failure rather than retrying, on the assumption that a
// server refusing one connection will refuse the rest too.
func (p *Pool) preWarm() {
	ctx := context.Background()
	if d := p.cfg.ConnectionTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	for i := 0; i < p.cfg.MinConnections; i++ {
		if err := p.connect(ctx); err != nil {
			nlog.Warningf("%s: pre-warm: %v", p.ident, err)
			return
		}
	}
}

// connect dials one new connection and adds it to the idle list without
// handing it to any caller. It is the pool's "connect" operation: used to
// pre-warm MinConnections at construction, distinct from Get's checkout of
// a connection for a caller's immediate use. Connections lost later are
// not replaced to restore MinConnections.
func (p *Pool) connect(ctx context.Context) error {
	p.mu.Lock()
	if p.size >= p.cfg.MaxConnections {
		p.mu.Unlock()
		return nil
	}
	p.size++
	p.mu.Unlock()
	p.updateGauges()

	conn, err := p.dial(ctx)
	if err != nil {
		p.forget()
		return fmt.Errorf("pool: connect: %w", err)
	}

	c := &Conn{Conn: conn, pool: p, idleAt: mono.NanoTime()}
	p.mu.Lock()
	p.idle = append(p.idle, c)
	p.mu.Unlock()
	p.updateGauges()
	return nil
}

func (p *Pool) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port))
}

// Get checks out a connection, preferring a live idle one and dialing a
// new one when the idle list is empty and the pool has spare capacity.
// If the pool is at capacity with nothing idle, Get waits, rechecking
// every checkoutPollInterval, until a connection frees up or
// ConnectionTimeout elapses, in which case it returns ErrCheckoutTimeout.
// ctx bounds the whole operation, including ConnectionTimeout.
func (p *Pool) Get(ctx context.Context) (*Conn, error) {
	if d := p.cfg.ConnectionTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	for {
		c, err := p.tryAcquire(ctx)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrCheckoutTimeout
		case <-time.After(checkoutPollInterval):
		}
	}
}

// tryAcquire makes one non-blocking checkout attempt: a live idle
// connection if one exists, otherwise a freshly dialed one if the pool
// has spare capacity. It returns (nil, nil) when neither is currently
// possible, telling Get to wait and retry.
func (p *Pool) tryAcquire(ctx context.Context) (*Conn, error) {
	for {
		c, ok := p.takeIdle()
		if !ok {
			break
		}
		if !alive(c.Conn) {
			nlog.Infof("%s: dropping dead idle connection", p.ident)
			c.Conn.Close()
			p.forget()
			continue
		}
		p.updateGauges()
		return c, nil
	}

	p.mu.Lock()
	if p.size >= p.cfg.MaxConnections {
		p.mu.Unlock()
		return nil, nil
	}
	p.size++
	p.mu.Unlock()
	p.updateGauges()

	conn, err := p.dial(ctx)
	if err != nil {
		p.forget()
		return nil, fmt.Errorf("pool: dial: %w", err)
	}
	return &Conn{Conn: conn, pool: p}, nil
}

func (p *Pool) takeIdle() (*Conn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.idle)
	if n == 0 {
		return nil, false
	}
	c := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return c, true
}

func (p *Pool) release(c *Conn) {
	if p.closed.Load() {
		// Close fails on an already-closed connection, so a repeated
		// Release after Close does not decrement size twice.
		if c.Conn.Close() == nil {
			p.forget()
		}
		return
	}
	p.mu.Lock()
	for _, ic := range p.idle {
		if ic == c {
			p.mu.Unlock()
			return
		}
	}
	c.idleAt = mono.NanoTime()
	debug.Assert(len(p.idle) < p.size, "releasing more connections than were checked out")
	p.idle = append(p.idle, c)
	p.mu.Unlock()
	p.updateGauges()
}

// forget decrements the live-connection counter after a connection is
// closed outside of Release (dial failure, drop, eviction).
func (p *Pool) forget() {
	p.mu.Lock()
	p.size--
	p.mu.Unlock()
	p.updateGauges()
}

func (p *Pool) updateGauges() {
	if p.stats == nil {
		return
	}
	p.mu.Lock()
	size, idle := p.size, len(p.idle)
	p.mu.Unlock()
	p.stats.PoolSize.Set(float64(size))
	p.stats.PoolIdle.Set(float64(idle))
}

// evictIdle runs as a housekeeping task every IdleTimeout, closing idle
// connections whose mono.Since age exceeds IdleTimeout. Evicted connections
// leave the idle list under the pool lock, so Get never hands one out; Get
// itself does not check age, so a connection idle past IdleTimeout can
// still be handed out until the next pass removes it.
func (p *Pool) evictIdle() time.Duration {
	p.mu.Lock()
	live := p.idle[:0]
	var evicted []*Conn
	for _, c := range p.idle {
		if mono.Since(c.idleAt) > p.cfg.IdleTimeout {
			evicted = append(evicted, c)
		} else {
			live = append(live, c)
		}
	}
	p.idle = live
	p.size -= len(evicted)
	p.mu.Unlock()

	for _, c := range evicted {
		c.Conn.Close()
	}
	if len(evicted) > 0 {
		nlog.Infof("%s: evicted %d idle connection(s)", p.ident, len(evicted))
	}
	p.updateGauges()
	return p.cfg.IdleTimeout
}

// Close stops housekeeping and closes every idle connection. In-flight
// checked-out connections are closed by their holders' Drop/Release as
// they finish; Release after Close always closes rather than re-pools.
// There is no weak back-reference here, so the pool tracks its own
// liveness with an atomic flag instead.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.hk.Unreg(p.ident + "-idle-evict")
	p.hk.Stop()

	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()
	for _, c := range idle {
		c.Conn.Close()
	}
}

// Stats returns the current (size, idle) counts, mainly for tests.
func (p *Pool) Stats() (size, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size, len(p.idle)
}
