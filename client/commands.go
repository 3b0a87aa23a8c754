package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"redicli/redis/protocol"
)

// Thin catalogue of administrative commands. Each function is a fixed pair
// of command tokens and decode shape over the executor; none contains logic
// beyond splitting a payload the server formats as text.

func (c *Client) Ping(ctx context.Context) error {
	return c.DoUnit(ctx, "PING")
}

func (c *Client) Echo(ctx context.Context, message string) (string, error) {
	value, _, err := c.DoString(ctx, "ECHO", message)
	return value, err
}

func (c *Client) Select(ctx context.Context, db int) error {
	return c.DoUnit(ctx, "SELECT", db)
}

func (c *Client) DBSize(ctx context.Context) (int64, error) {
	return c.DoInteger(ctx, "DBSIZE")
}

func (c *Client) FlushDB(ctx context.Context) error {
	return c.DoUnit(ctx, "FLUSHDB")
}

func (c *Client) FlushAll(ctx context.Context) error {
	return c.DoUnit(ctx, "FLUSHALL")
}

// Info returns the raw INFO payload, optionally restricted to one section.
func (c *Client) Info(ctx context.Context, sections ...string) (string, error) {
	args := make([]interface{}, len(sections))
	for i, section := range sections {
		args[i] = section
	}
	value, _, err := c.DoString(ctx, "INFO", args...)
	return value, err
}

// Time returns the server clock assembled from the seconds/microseconds
// pair of the TIME reply.
func (c *Client) Time(ctx context.Context) (time.Time, error) {
	reply, err := c.Do(ctx, "TIME")
	if err != nil {
		return time.Time{}, err
	}
	seconds, microseconds, err := protocol.DecodeTime(reply)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(seconds, microseconds*int64(time.Microsecond)), nil
}

// LastSave returns the unix timestamp of the last successful save to disk.
func (c *Client) LastSave(ctx context.Context) (int64, error) {
	return c.DoInteger(ctx, "LASTSAVE")
}

func (c *Client) BgSave(ctx context.Context) (string, error) {
	value, _, err := c.DoString(ctx, "BGSAVE")
	return value, err
}

func (c *Client) BgRewriteAOF(ctx context.Context) (string, error) {
	value, _, err := c.DoString(ctx, "BGREWRITEAOF")
	return value, err
}

// ConfigGet returns parameter/value pairs matching pattern, in server order.
func (c *Client) ConfigGet(ctx context.Context, pattern string) ([]protocol.MapEntry, error) {
	return c.DoEntries(ctx, "CONFIG", "GET", pattern)
}

func (c *Client) ConfigSet(ctx context.Context, parameter, value string) error {
	return c.DoUnit(ctx, "CONFIG", "SET", parameter, value)
}

func (c *Client) ConfigResetStat(ctx context.Context) error {
	return c.DoUnit(ctx, "CONFIG", "RESETSTAT")
}

// ClientList splits the CLIENT LIST payload, one line per connected client,
// into attribute maps keyed by field name (addr, fd, name, ...).
func (c *Client) ClientList(ctx context.Context) ([]map[string]string, error) {
	payload, ok, err := c.DoString(ctx, "CLIENT", "LIST")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var clients []map[string]string
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		attributes := make(map[string]string)
		for _, field := range strings.Fields(line) {
			if idx := strings.IndexByte(field, '='); idx >= 0 {
				attributes[field[:idx]] = field[idx+1:]
			}
		}
		clients = append(clients, attributes)
	}
	return clients, nil
}

// ClientGetName returns the connection name, empty when none was set.
func (c *Client) ClientGetName(ctx context.Context) (string, error) {
	value, _, err := c.DoString(ctx, "CLIENT", "GETNAME")
	return value, err
}

func (c *Client) ClientSetName(ctx context.Context, name string) error {
	return c.DoUnit(ctx, "CLIENT", "SETNAME", name)
}

func (c *Client) ClientID(ctx context.Context) (int64, error) {
	return c.DoInteger(ctx, "CLIENT", "ID")
}

// ScriptExists reports, per sha, whether the script is cached server side.
func (c *Client) ScriptExists(ctx context.Context, shas ...string) ([]bool, error) {
	args := make([]interface{}, len(shas)+1)
	args[0] = "EXISTS"
	for i, sha := range shas {
		args[i+1] = sha
	}
	flags, err := c.DoIntegerSlice(ctx, "SCRIPT", args...)
	if err != nil {
		return nil, err
	}
	exists := make([]bool, len(flags))
	for i, flag := range flags {
		exists[i] = flag == 1
	}
	return exists, nil
}

// Role returns the raw ROLE reply; its shape differs between master and
// replica, so decoding stays with the caller.
func (c *Client) Role(ctx context.Context) (*protocol.Reply, error) {
	return c.Do(ctx, "ROLE")
}

// SlowLogGet returns the raw SLOWLOG GET reply, a nested array whose entry
// layout varies across server versions.
func (c *Client) SlowLogGet(ctx context.Context, count int64) (*protocol.Reply, error) {
	return c.Do(ctx, "SLOWLOG", "GET", count)
}

// Shutdown asks the server to exit. On success the server closes the
// connection without replying, so a clean EOF counts as success; an error
// reply (for example a failed save) surfaces as usual.
func (c *Client) Shutdown(ctx context.Context, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, modifier := range modifiers {
		args[i] = modifier
	}
	err := c.DoUnit(ctx, "SHUTDOWN", args...)
	if err != nil && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
