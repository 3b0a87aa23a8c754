package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"redicli/config"
	"redicli/redis"
	"redicli/redis/parser"
	"redicli/redis/protocol"
)

// fakeServer accepts connections and hands each parsed request to handler,
// which writes whatever reply bytes it wants. Returning false closes the
// connection without replying.
type fakeServer struct {
	ln net.Listener
}

func startFakeServer(t *testing.T, handler func(cmd [][]byte, conn net.Conn) bool) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				reader := bufio.NewReader(conn)
				for {
					cmd, err := readCommand(reader)
					if err != nil {
						return
					}
					if !handler(cmd, conn) {
						return
					}
				}
			}(conn)
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

// a request is an array of bulk strings
func readCommand(reader *bufio.Reader) ([][]byte, error) {
	reply, err := parser.ParseReply(reader)
	if err != nil {
		return nil, err
	}
	elements := reply.Array()
	cmd := make([][]byte, len(elements))
	for i, element := range elements {
		cmd[i] = element.Bulk()
	}
	return cmd, nil
}

func scripted(replies map[string]string) func(cmd [][]byte, conn net.Conn) bool {
	return func(cmd [][]byte, conn net.Conn) bool {
		reply, ok := replies[strings.ToUpper(string(cmd[0]))]
		if !ok {
			reply = "-ERR unknown command '" + string(cmd[0]) + "'\r\n"
		}
		_, err := conn.Write([]byte(reply))
		return err == nil
	}
}

func TestClient_Do(t *testing.T) {
	server := startFakeServer(t, scripted(map[string]string{
		"PING":   "+PONG\r\n",
		"GET":    "$3\r\nbar\r\n",
		"DBSIZE": ":42\r\n",
	}))
	c := NewClient(server.addr(), WithPoolSize(2))
	defer c.Close()
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	value, ok, err := c.DoString(ctx, "GET", "foo")
	if err != nil || !ok || value != "bar" {
		t.Fatalf("get: expect (bar, true), got (%q, %v, %v)", value, ok, err)
	}
	size, err := c.DBSize(ctx)
	if err != nil || size != 42 {
		t.Fatalf("dbsize: expect 42, got (%d, %v)", size, err)
	}
}

func TestClient_CommandErrorSurfaced(t *testing.T) {
	server := startFakeServer(t, scripted(map[string]string{
		"GET":  "-ERR wrong number of arguments\r\n",
		"PING": "+PONG\r\n",
	}))
	c := NewClient(server.addr(), WithPoolSize(1))
	defer c.Close()
	ctx := context.Background()

	_, err := c.Do(ctx, "GET")
	var cmdErr *protocol.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expect *protocol.CommandError, got %v", err)
	}
	if cmdErr.Kind != "ERR" || cmdErr.Message != "wrong number of arguments" {
		t.Fatalf("expect kind ERR, message %q, got %q / %q", "wrong number of arguments", cmdErr.Kind, cmdErr.Message)
	}
	// the protocol stream stayed well formed, the connection is reusable
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping after command error: %v", err)
	}
	if idle, inUse := c.PoolStats(); idle != 1 || inUse != 0 {
		t.Fatalf("expect connection back in pool, got idle=%d inUse=%d", idle, inUse)
	}
}

func TestClient_NilReply(t *testing.T) {
	server := startFakeServer(t, scripted(map[string]string{
		"GET": "$-1\r\n",
	}))
	c := NewClient(server.addr())
	defer c.Close()

	value, ok, err := c.DoString(context.Background(), "GET", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || value != "" {
		t.Fatalf("expect absent value, got (%q, %v)", value, ok)
	}
}

// With one connection, the second command's bytes must not reach the server
// before the first command's reply has been written.
func TestClient_Ordering(t *testing.T) {
	var mu sync.Mutex
	var events []string
	first := true
	server := startFakeServer(t, func(cmd [][]byte, conn net.Conn) bool {
		mu.Lock()
		events = append(events, "recv "+string(cmd[1]))
		delay := first
		first = false
		mu.Unlock()
		if delay {
			time.Sleep(50 * time.Millisecond)
		}
		if _, err := conn.Write([]byte("+OK\r\n")); err != nil {
			return false
		}
		mu.Lock()
		events = append(events, "sent")
		mu.Unlock()
		return true
	})
	c := NewClient(server.addr(), WithPoolSize(1))
	defer c.Close()

	var wg sync.WaitGroup
	for _, key := range []string{"k1", "k2"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if _, err := c.Do(context.Background(), "GET", key); err != nil {
				t.Errorf("get %s: %v", key, err)
			}
		}(key)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 4 {
		t.Fatalf("expect 4 events, got %v", events)
	}
	for i := 0; i < len(events); i += 2 {
		if !strings.HasPrefix(events[i], "recv") || events[i+1] != "sent" {
			t.Fatalf("interleaved request/reply, events: %v", events)
		}
	}
}

// A timed-out call leaves a reply owed on the wire; the connection must be
// discarded, not returned to the pool.
func TestClient_TimeoutDiscardsConnection(t *testing.T) {
	server := startFakeServer(t, func(cmd [][]byte, conn net.Conn) bool {
		time.Sleep(time.Second)
		return false
	})
	c := NewClient(server.addr(), WithPoolSize(1))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, "GET", "slow")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expect *TransportError, got %v", err)
	}
	if idle, inUse := c.PoolStats(); idle != 0 || inUse != 0 {
		t.Fatalf("expect connection discarded, got idle=%d inUse=%d", idle, inUse)
	}
}

func TestClient_ProtocolErrorDiscardsConnection(t *testing.T) {
	server := startFakeServer(t, func(cmd [][]byte, conn net.Conn) bool {
		_, err := conn.Write([]byte("%garbage\r\n"))
		return err == nil
	})
	c := NewClient(server.addr(), WithPoolSize(1))
	defer c.Close()

	_, err := c.Do(context.Background(), "GET", "x")
	var protoErr *protocol.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expect *protocol.ProtocolError, got %v", err)
	}
	if idle, inUse := c.PoolStats(); idle != 0 || inUse != 0 {
		t.Fatalf("expect connection discarded, got idle=%d inUse=%d", idle, inUse)
	}
}

func TestClient_Pipeline(t *testing.T) {
	replies := []string{"+OK\r\n", ":1\r\n", "-ERR oops\r\n"}
	index := 0
	server := startFakeServer(t, func(cmd [][]byte, conn net.Conn) bool {
		reply := replies[index%len(replies)]
		index++
		_, err := conn.Write([]byte(reply))
		return err == nil
	})
	c := NewClient(server.addr(), WithPoolSize(1))
	defer c.Close()

	pipe := c.Pipeline()
	if err := pipe.Queue("SET", "counter", 0); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if err := pipe.Queue("INCR", "counter"); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if err := pipe.Queue("BROKEN"); err != nil {
		t.Fatalf("queue: %v", err)
	}
	results, err := pipe.Exec(context.Background())
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expect 3 replies, got %d", len(results))
	}
	if results[0].Type() != protocol.TypeStatus || results[0].Text() != "OK" {
		t.Fatalf("reply 0: expect +OK, got %q", results[0].ToBytes())
	}
	if results[1].Type() != protocol.TypeInteger || results[1].Integer() != 1 {
		t.Fatalf("reply 1: expect :1, got %q", results[1].ToBytes())
	}
	if results[2].Type() != protocol.TypeError || results[2].Err().Kind != "ERR" {
		t.Fatalf("reply 2: expect error reply, got %q", results[2].ToBytes())
	}
	// error replies do not break the connection
	if idle, inUse := c.PoolStats(); idle != 1 || inUse != 0 {
		t.Fatalf("expect connection back in pool, got idle=%d inUse=%d", idle, inUse)
	}
}

func TestClient_Shutdown(t *testing.T) {
	server := startFakeServer(t, func(cmd [][]byte, conn net.Conn) bool {
		// SHUTDOWN closes the connection without a reply
		return false
	})
	c := NewClient(server.addr(), WithPoolSize(1))
	defer c.Close()

	if err := c.Shutdown(context.Background(), "NOSAVE"); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestClient_EncodeError(t *testing.T) {
	c := NewClient("127.0.0.1:0")
	defer c.Close()

	_, err := c.Do(context.Background(), "SET", "key", struct{ A int }{})
	var encodeErr *redis.EncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("expect *redis.EncodeError, got %v", err)
	}
}

func TestClient_InjectedDialer(t *testing.T) {
	dial := func(ctx context.Context) (net.Conn, error) {
		clientSide, serverSide := net.Pipe()
		go func() {
			defer serverSide.Close()
			reader := bufio.NewReader(serverSide)
			for {
				if _, err := readCommand(reader); err != nil {
					return
				}
				if _, err := serverSide.Write([]byte("+PONG\r\n")); err != nil {
					return
				}
			}
		}()
		return clientSide, nil
	}
	c := NewClient("in-process", WithDialer(dial), WithPoolSize(1))
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping over injected transport: %v", err)
	}
}

func TestClient_DialFailure(t *testing.T) {
	dial := func(ctx context.Context) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	c := NewClient("nowhere", WithDialer(dial), WithDialTimeout(100*time.Millisecond))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.Do(ctx, "PING")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expect *TransportError, got %v", err)
	}
	if transportErr.Op != "dial" {
		t.Fatalf("expect dial failure, got op %q", transportErr.Op)
	}
}

// The metrics switch really gates the collectors: a disabled client leaves
// every counter untouched, an enabled one does not.
func TestClient_MetricsSwitch(t *testing.T) {
	server := startFakeServer(t, scripted(map[string]string{"PING": "+PONG\r\n"}))
	counter := commandsTotal.WithLabelValues("PING", statusOK)

	disabled := NewClient(server.addr(), WithPoolSize(1), WithMetrics(false))
	defer disabled.Close()
	before := testutil.ToFloat64(counter)
	if err := disabled.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if got := testutil.ToFloat64(counter); got != before {
		t.Fatalf("metrics disabled: counter moved from %v to %v", before, got)
	}

	enabled := NewClient(server.addr(), WithPoolSize(1), WithMetrics(true))
	defer enabled.Close()
	if err := enabled.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("metrics enabled: expect counter %v, got %v", before+1, got)
	}
}

// A send that cannot make progress fails on the write deadline even when
// the call context carries no deadline of its own.
func TestConn_WriteTimeout(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()
	cn := newConn(clientSide, 50*time.Millisecond)

	cmd, err := redis.NewCommand("PING")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = cn.roundTrip(context.Background(), cmd.ToBytes())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expect *TransportError, got %v", err)
	}
	if transportErr.Op != "write" {
		t.Fatalf("expect write failure, got op %q", transportErr.Op)
	}
	if !cn.broken {
		t.Fatal("expect connection marked broken after write timeout")
	}
}

func TestFromProperties(t *testing.T) {
	c := FromProperties(&config.ClientProperties{
		Address:            "10.0.0.1:6400",
		PoolSize:           2,
		DialTimeoutMillis:  100,
		ReadTimeoutMillis:  200,
		WriteTimeoutMillis: 250,
		EnableMetrics:      false,
	})
	defer c.Close()
	if c.metrics || c.pool.metrics {
		t.Fatal("expect metrics switch from properties to reach client and pool")
	}
	if c.pool.writeTimeout != 250*time.Millisecond {
		t.Fatalf("expect write timeout 250ms, got %v", c.pool.writeTimeout)
	}
	if c.timeout != 200*time.Millisecond {
		t.Fatalf("expect command timeout 200ms, got %v", c.timeout)
	}
	if c.pool.capacity != 2 {
		t.Fatalf("expect pool capacity 2, got %d", c.pool.capacity)
	}
}

// A connection returned after Close must be closed, never re-shelved into
// the drained idle channel.
func TestPool_PutAfterClose(t *testing.T) {
	var serverSide net.Conn
	options := defaultOptions("in-process")
	options.PoolSize = 1
	options.Dialer = func(ctx context.Context) (net.Conn, error) {
		var clientSide net.Conn
		clientSide, serverSide = net.Pipe()
		return clientSide, nil
	}
	p := newPool("in-process", options)

	cn, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.Close()
	p.Put(cn)

	_ = serverSide.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := serverSide.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Fatalf("expect connection closed after Put on closed pool, got %v", err)
	}
	if idle, inUse := p.Stats(); idle != 0 || inUse != 0 {
		t.Fatalf("expect empty pool, got idle=%d inUse=%d", idle, inUse)
	}
}

func TestClient_Closed(t *testing.T) {
	server := startFakeServer(t, scripted(map[string]string{"PING": "+PONG\r\n"}))
	c := NewClient(server.addr())
	c.Close()

	if _, err := c.Do(context.Background(), "PING"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expect ErrClosed, got %v", err)
	}
}
