package client

import (
	"context"
	"time"

	"redicli/config"
	"redicli/redis"
	"redicli/redis/protocol"
)

// Client issues commands over a bounded pool of connections. Each call
// borrows one connection for exactly one request/reply round trip, so
// concurrent callers never interleave on the wire.
//
// The client never retries a command: transport failures surface as
// *TransportError and the retry decision stays with the caller, who knows
// whether the specific command is safe to repeat.
type Client struct {
	address string
	pool    *pool
	timeout time.Duration
	metrics bool
}

func NewClient(address string, opts ...Option) *Client {
	options := defaultOptions(address)
	for _, opt := range opts {
		opt(options)
	}
	return &Client{
		address: address,
		pool:    newPool(address, options),
		timeout: options.CommandTimeout,
		metrics: options.EnableMetrics,
	}
}

// FromProperties builds a client from a loaded configuration.
func FromProperties(props *config.ClientProperties) *Client {
	return NewClient(props.Address,
		WithPoolSize(props.PoolSize),
		WithDialTimeout(time.Duration(props.DialTimeoutMillis)*time.Millisecond),
		WithCommandTimeout(time.Duration(props.ReadTimeoutMillis)*time.Millisecond),
		WithWriteTimeout(time.Duration(props.WriteTimeoutMillis)*time.Millisecond),
		WithMetrics(props.EnableMetrics),
	)
}

// Do executes one command and returns the raw reply tree. A server error
// reply is surfaced as *protocol.CommandError, never swallowed; the
// connection that carried it stays pooled because the stream itself stayed
// well formed. Encoding failures surface as *redis.EncodeError before
// anything is written.
func (c *Client) Do(ctx context.Context, name string, args ...interface{}) (*protocol.Reply, error) {
	cmd, err := redis.NewCommand(name, args...)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, cmd)
}

func (c *Client) execute(ctx context.Context, cmd *redis.Command) (*protocol.Reply, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	name := cmd.Name()
	start := time.Now()
	cn, err := c.pool.Get(ctx)
	if err != nil {
		c.count(name, statusFailed)
		return nil, err
	}
	reply, err := cn.roundTrip(ctx, cmd.ToBytes())
	c.pool.Put(cn)
	if c.metrics {
		commandLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.count(name, statusFailed)
		return nil, err
	}
	if reply.Type() == protocol.TypeError {
		c.count(name, statusCommandError)
		return nil, reply.Err()
	}
	c.count(name, statusOK)
	return reply, nil
}

func (c *Client) count(name, status string) {
	if c.metrics {
		commandsTotal.WithLabelValues(name, status).Inc()
	}
}

// DoString executes a command expecting optional text. ok is false when the
// server replied nil.
func (c *Client) DoString(ctx context.Context, name string, args ...interface{}) (string, bool, error) {
	reply, err := c.Do(ctx, name, args...)
	if err != nil {
		return "", false, err
	}
	return protocol.DecodeString(reply)
}

func (c *Client) DoInteger(ctx context.Context, name string, args ...interface{}) (int64, error) {
	reply, err := c.Do(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	return protocol.DecodeInteger(reply)
}

func (c *Client) DoStringSlice(ctx context.Context, name string, args ...interface{}) ([]string, error) {
	reply, err := c.Do(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeStringSlice(reply)
}

func (c *Client) DoIntegerSlice(ctx context.Context, name string, args ...interface{}) ([]int64, error) {
	reply, err := c.Do(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeIntegerSlice(reply)
}

// DoEntries executes a command whose reply is an alternating key/value
// array, preserving server order.
func (c *Client) DoEntries(ctx context.Context, name string, args ...interface{}) ([]protocol.MapEntry, error) {
	reply, err := c.Do(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeEntries(reply)
}

func (c *Client) DoStringMap(ctx context.Context, name string, args ...interface{}) (map[string]string, error) {
	reply, err := c.Do(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeStringMap(reply)
}

// DoUnit executes a command whose payload the caller does not need.
func (c *Client) DoUnit(ctx context.Context, name string, args ...interface{}) error {
	reply, err := c.Do(ctx, name, args...)
	if err != nil {
		return err
	}
	return protocol.DecodeUnit(reply)
}

// PoolStats reports idle and in-use connection counts.
func (c *Client) PoolStats() (idle int, inUse int) {
	return c.pool.Stats()
}

// Close closes the pool. In-flight calls finish; their connections are
// closed on return.
func (c *Client) Close() {
	c.pool.Close()
}
