package redis

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EncodeError reports an argument that has no byte representation on the
// wire. The call that produced it never reached the server.
type EncodeError struct {
	Index int
	Arg   interface{}
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode argument %d of type %T", e.Index, e.Arg)
}

// Command is a single request: the command name followed by its arguments in
// the exact order they appear on the wire. Redis is positional, tokens are
// never reordered or merged.
type Command struct {
	parts [][]byte
}

// NewCommand converts name and args into wire tokens. Arguments must be
// scalar values; anything without a byte representation fails with
// *EncodeError.
func NewCommand(name string, args ...interface{}) (*Command, error) {
	parts := make([][]byte, 0, len(args)+1)
	parts = append(parts, []byte(name))
	for i, arg := range args {
		part, ok := encodeArg(arg)
		if !ok {
			return nil, &EncodeError{Index: i, Arg: arg}
		}
		parts = append(parts, part)
	}
	return &Command{parts: parts}, nil
}

func (c *Command) Name() string {
	return strings.ToUpper(string(c.parts[0]))
}

func (c *Command) Len() int {
	return len(c.parts)
}

func (c *Command) Parts() [][]byte {
	return c.parts
}

/*
	Format Command to a RESP request:
	*{count}\r\n followed by ${len}\r\n{token}\r\n per token.
	Every token is a length-prefixed bulk string, so arguments containing
	\r\n or null bytes survive unchanged.
*/
func (c *Command) ToBytes() []byte {
	builder := strings.Builder{}
	builder.WriteString("*" + strconv.Itoa(len(c.parts)) + CRLF)
	for _, part := range c.parts {
		builder.WriteString("$" + strconv.Itoa(len(part)) + CRLF)
		builder.Write(part)
		builder.WriteString(CRLF)
	}
	return []byte(builder.String())
}

func encodeArg(arg interface{}) ([]byte, bool) {
	switch v := arg.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	case int:
		return strconv.AppendInt(nil, int64(v), 10), true
	case int8:
		return strconv.AppendInt(nil, int64(v), 10), true
	case int16:
		return strconv.AppendInt(nil, int64(v), 10), true
	case int32:
		return strconv.AppendInt(nil, int64(v), 10), true
	case int64:
		return strconv.AppendInt(nil, v, 10), true
	case uint:
		return strconv.AppendUint(nil, uint64(v), 10), true
	case uint8:
		return strconv.AppendUint(nil, uint64(v), 10), true
	case uint16:
		return strconv.AppendUint(nil, uint64(v), 10), true
	case uint32:
		return strconv.AppendUint(nil, uint64(v), 10), true
	case uint64:
		return strconv.AppendUint(nil, v, 10), true
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'f', -1, 32), true
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64), true
	case bool:
		if v {
			return []byte("1"), true
		}
		return []byte("0"), true
	case time.Duration:
		return strconv.AppendInt(nil, int64(v/time.Millisecond), 10), true
	default:
		return nil, false
	}
}
