package client

import (
	"context"
	"time"

	"redicli/redis"
	"redicli/redis/protocol"
)

// Pipeline queues commands and flushes them over a single connection in one
// write burst. Replies come back strictly FIFO, so the i-th reply belongs to
// the i-th queued command. Server error replies stay in the result slice as
// Error variants for the caller to decode per command; a transport or
// protocol failure aborts the whole batch and discards the connection, since
// the remaining replies can no longer be attributed.
type Pipeline struct {
	client   *Client
	payloads [][]byte
	names    []string
}

func (c *Client) Pipeline() *Pipeline {
	return &Pipeline{client: c}
}

// Queue appends one command to the batch. An encoding failure is reported
// immediately and queues nothing.
func (p *Pipeline) Queue(name string, args ...interface{}) error {
	cmd, err := redis.NewCommand(name, args...)
	if err != nil {
		return err
	}
	p.payloads = append(p.payloads, cmd.ToBytes())
	p.names = append(p.names, cmd.Name())
	return nil
}

func (p *Pipeline) Len() int {
	return len(p.payloads)
}

// Exec flushes the batch and returns one reply per queued command, in queue
// order. The pipeline is reset afterwards and may be reused.
func (p *Pipeline) Exec(ctx context.Context) ([]*protocol.Reply, error) {
	if len(p.payloads) == 0 {
		return nil, nil
	}
	c := p.client
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	cn, err := c.pool.Get(ctx)
	if err != nil {
		p.count(statusFailed)
		return nil, err
	}
	replies, err := cn.pipeline(ctx, p.payloads)
	c.pool.Put(cn)
	if err != nil {
		p.count(statusFailed)
		return nil, err
	}
	elapsed := time.Since(start).Seconds() / float64(len(p.names))
	for i, name := range p.names {
		if c.metrics {
			commandLatency.WithLabelValues(name).Observe(elapsed)
		}
		if replies[i].Type() == protocol.TypeError {
			c.count(name, statusCommandError)
		} else {
			c.count(name, statusOK)
		}
	}
	p.payloads = nil
	p.names = nil
	return replies, nil
}

func (p *Pipeline) count(status string) {
	for _, name := range p.names {
		p.client.count(name, status)
	}
}
