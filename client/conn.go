package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"redicli/redis/parser"
	"redicli/redis/protocol"
)

// conn is one physical connection. The mutex serializes round trips so a
// second request is never written before the first reply has been fully
// consumed: RESP carries no request identifiers, FIFO ordering on the wire
// is the only thing that associates replies with requests.
type conn struct {
	nc           net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration
	mu           sync.Mutex
	broken       bool
}

func newConn(nc net.Conn, writeTimeout time.Duration) *conn {
	return &conn{nc: nc, reader: bufio.NewReader(nc), writeTimeout: writeTimeout}
}

// roundTrip writes one encoded request and reads exactly one reply. Any
// transport or protocol failure marks the connection broken: a reply may
// still be owed on the wire and reusing the connection would misalign every
// later request.
func (c *conn) roundTrip(ctx context.Context, payload []byte) (*protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.applyDeadline(ctx); err != nil {
		c.broken = true
		return nil, &TransportError{Op: "deadline", Err: err}
	}
	if _, err := c.nc.Write(payload); err != nil {
		c.broken = true
		return nil, &TransportError{Op: "write", Err: err}
	}
	return c.readReply()
}

// pipeline writes every request back to back, then reads the same number of
// replies in order. Server error replies stay in the result slice; only
// transport and protocol failures abort, and those break the connection.
func (c *conn) pipeline(ctx context.Context, payloads [][]byte) ([]*protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.applyDeadline(ctx); err != nil {
		c.broken = true
		return nil, &TransportError{Op: "deadline", Err: err}
	}
	for _, payload := range payloads {
		if _, err := c.nc.Write(payload); err != nil {
			c.broken = true
			return nil, &TransportError{Op: "write", Err: err}
		}
	}
	replies := make([]*protocol.Reply, len(payloads))
	for i := range payloads {
		reply, err := c.readReply()
		if err != nil {
			return nil, err
		}
		replies[i] = reply
	}
	return replies, nil
}

func (c *conn) readReply() (*protocol.Reply, error) {
	reply, err := parser.ParseReply(c.reader)
	if err != nil {
		c.broken = true
		if errors.Is(err, protocol.ErrIncompleteReply) {
			// the peer closed mid-reply
			return nil, &TransportError{Op: "read", Err: io.EOF}
		}
		var protoErr *protocol.ProtocolError
		if errors.As(err, &protoErr) {
			return nil, err
		}
		return nil, &TransportError{Op: "read", Err: err}
	}
	return reply, nil
}

// applyDeadline bounds the whole round trip by the context deadline and the
// write half additionally by the configured write timeout, whichever comes
// first.
func (c *conn) applyDeadline(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.nc.SetDeadline(deadline); err != nil {
		return err
	}
	if c.writeTimeout > 0 {
		writeDeadline := time.Now().Add(c.writeTimeout)
		if deadline.IsZero() || writeDeadline.Before(deadline) {
			return c.nc.SetWriteDeadline(writeDeadline)
		}
	}
	return nil
}

func (c *conn) close() {
	_ = c.nc.Close()
}
