package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"redicli/util/log"
)

// DialFunc produces a connected, authenticated stream. The pool owns no
// handshake logic of its own; TLS and AUTH belong to the injected dialer.
type DialFunc func(ctx context.Context) (net.Conn, error)

// pool is a bounded connection pool. Idle connections wait in a channel,
// capacity is enforced by a size counter, and a caller at capacity blocks
// until a connection is returned or its context expires.
//
// Dialing goes through a circuit breaker so a dead server fails fast for
// every waiter instead of each one timing out in turn, and through
// exponential backoff within the caller's deadline.
type pool struct {
	address      string
	capacity     int
	dialTimeout  time.Duration
	writeTimeout time.Duration
	metrics      bool
	dial         DialFunc
	breaker      *gobreaker.CircuitBreaker

	mu     sync.Mutex
	size   int
	closed bool
	idle   chan *conn
}

func newPool(address string, options *Options) *pool {
	capacity := options.PoolSize
	if capacity <= 0 {
		capacity = 1
	}
	return &pool{
		address:      address,
		capacity:     capacity,
		dialTimeout:  options.DialTimeout,
		writeTimeout: options.WriteTimeout,
		metrics:      options.EnableMetrics,
		dial:         options.Dialer,
		idle:         make(chan *conn, capacity),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "redicli-dial-" + address,
		}),
	}
}

// Get returns an idle connection, creates one below capacity, or waits.
func (p *pool) Get(ctx context.Context) (*conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.mu.Unlock()

	select {
	case c := <-p.idle:
		p.updateGauges()
		return c, nil
	default:
	}

	if c, err := p.create(ctx); c != nil || err != nil {
		return c, err
	}

	// at capacity, wait for a returned connection
	select {
	case c := <-p.idle:
		p.updateGauges()
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a connection to the pool. Broken connections are closed and
// their capacity slot freed; a reply may still be owed on them and the next
// user would read someone else's answer.
//
// The send happens under the mutex so a concurrent Close cannot finish its
// drain between the closed check and the send and strand an open
// connection in the channel. The buffered channel holds capacity slots and
// at most size connections exist, so the send never blocks.
func (p *pool) Put(c *conn) {
	p.mu.Lock()
	if c.broken || p.closed {
		p.mu.Unlock()
		p.discard(c)
		return
	}
	p.idle <- c
	p.mu.Unlock()
	p.updateGauges()
}

func (p *pool) discard(c *conn) {
	c.close()
	p.mu.Lock()
	p.size--
	p.mu.Unlock()
	if p.metrics {
		discardsTotal.WithLabelValues(p.address).Inc()
	}
	p.updateGauges()
	log.Debug("discarded connection to %s", p.address)
}

// create dials a new connection if a capacity slot is free, returning
// (nil, nil) when the pool is full.
func (p *pool) create(ctx context.Context) (*conn, error) {
	p.mu.Lock()
	if p.size >= p.capacity {
		p.mu.Unlock()
		return nil, nil
	}
	p.size++
	p.mu.Unlock()

	c, err := p.connect(ctx)
	if err != nil {
		p.mu.Lock()
		p.size--
		p.mu.Unlock()
		return nil, err
	}
	p.updateGauges()
	return c, nil
}

func (p *pool) connect(ctx context.Context) (*conn, error) {
	dialCtx := ctx
	if p.dialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, p.dialTimeout)
		defer cancel()
	}
	var nc net.Conn
	operation := func() error {
		result, err := p.breaker.Execute(func() (interface{}, error) {
			return p.dial(dialCtx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return backoff.Permanent(err)
			}
			return err
		}
		nc = result.(net.Conn)
		return nil
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), dialCtx)
	if err := backoff.Retry(operation, policy); err != nil {
		if p.metrics {
			dialsTotal.WithLabelValues(p.address, statusFailed).Inc()
		}
		log.Errorf("dial %s failed: %v", p.address, err)
		return nil, &TransportError{Op: "dial", Err: err}
	}
	if p.metrics {
		dialsTotal.WithLabelValues(p.address, statusOK).Inc()
	}
	return newConn(nc, p.writeTimeout), nil
}

// Close closes every idle connection and rejects further Gets. Connections
// currently in use are closed as they come back.
func (p *pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	for {
		select {
		case c := <-p.idle:
			c.close()
			p.mu.Lock()
			p.size--
			p.mu.Unlock()
		default:
			p.updateGauges()
			return
		}
	}
}

// Stats reports idle and in-use connection counts.
func (p *pool) Stats() (idle int, inUse int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idle = len(p.idle)
	return idle, p.size - idle
}

func (p *pool) updateGauges() {
	if !p.metrics {
		return
	}
	idle, inUse := p.Stats()
	poolConnections.WithLabelValues(p.address, "idle").Set(float64(idle))
	poolConnections.WithLabelValues(p.address, "in_use").Set(float64(inUse))
}
