package protocol

import (
	"bytes"
	"strconv"
	"strings"

	"redicli/redis"
)

type ReplyType byte

const (
	TypeStatus ReplyType = iota
	TypeError
	TypeInteger
	TypeBulkString
	TypeArray
)

func (t ReplyType) String() string {
	switch t {
	case TypeStatus:
		return "status"
	case TypeError:
		return "error"
	case TypeInteger:
		return "integer"
	case TypeBulkString:
		return "bulk string"
	case TypeArray:
		return "array"
	}
	return "unknown"
}

// Reply is one decoded server response. Exactly five variants; bulk strings
// and arrays additionally carry a nil marker for the -1 length sentinel, so
// an absent value is never conflated with an empty one.
type Reply struct {
	typ    ReplyType
	str    []byte
	number int64
	array  []*Reply
	err    *CommandError
	null   bool
}

var (
	OKReply        = NewStatusReply("OK")
	NilBulkReply   = &Reply{typ: TypeBulkString, null: true}
	NilArrayReply  = &Reply{typ: TypeArray, null: true}
	EmptyListReply = &Reply{typ: TypeArray, array: []*Reply{}}
)

func NewStatusReply(status string) *Reply {
	return &Reply{typ: TypeStatus, str: []byte(status)}
}

func NewIntegerReply(number int64) *Reply {
	return &Reply{typ: TypeInteger, number: number}
}

func NewBulkStringReply(payload []byte) *Reply {
	if payload == nil {
		return NilBulkReply
	}
	return &Reply{typ: TypeBulkString, str: payload}
}

func NewArrayReply(elements []*Reply) *Reply {
	if elements == nil {
		return NilArrayReply
	}
	return &Reply{typ: TypeArray, array: elements}
}

func NewErrorReply(err *CommandError) *Reply {
	return &Reply{typ: TypeError, err: err}
}

// NewErrorReplyFromLine splits a raw error line into kind and message. The
// kind is the leading token when it consists of upper-case letters only,
// which is the convention real servers follow ("ERR ...", "WRONGTYPE ...").
func NewErrorReplyFromLine(line string) *Reply {
	kind := ""
	message := line
	if idx := strings.IndexByte(line, ' '); idx > 0 && isErrorKind(line[:idx]) {
		kind = line[:idx]
		message = line[idx+1:]
	} else if idx < 0 && isErrorKind(line) {
		kind = line
		message = ""
	}
	return NewErrorReply(&CommandError{Kind: kind, Message: message})
}

func isErrorKind(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < 'A' || token[i] > 'Z' {
			return false
		}
	}
	return true
}

func (r *Reply) Type() ReplyType {
	return r.typ
}

// IsNil reports the -1 length sentinel of bulk string and array replies.
func (r *Reply) IsNil() bool {
	return r.null
}

// Text returns the payload of a status or bulk string reply.
func (r *Reply) Text() string {
	return string(r.str)
}

func (r *Reply) Bulk() []byte {
	return r.str
}

func (r *Reply) Integer() int64 {
	return r.number
}

func (r *Reply) Array() []*Reply {
	return r.array
}

// Err returns the server error of an Error reply, nil for every other
// variant.
func (r *Reply) Err() *CommandError {
	return r.err
}

/*
	Format Reply back to RESP bytes. Re-encoding decoded replies is what the
	echo round-trip tests and pipeline recordings rely on; the output is
	bit-exact RESP.
*/
func (r *Reply) ToBytes() []byte {
	switch r.typ {
	case TypeStatus:
		return []byte("+" + string(r.str) + redis.CRLF)
	case TypeError:
		return []byte("-" + r.err.Error() + redis.CRLF)
	case TypeInteger:
		return []byte(":" + strconv.FormatInt(r.number, 10) + redis.CRLF)
	case TypeBulkString:
		if r.null {
			return redis.NullBulkStringBytes
		}
		builder := strings.Builder{}
		builder.WriteString("$" + strconv.Itoa(len(r.str)) + redis.CRLF)
		builder.Write(r.str)
		builder.WriteString(redis.CRLF)
		return []byte(builder.String())
	case TypeArray:
		if r.null {
			return redis.NullArrayBytes
		}
		builder := strings.Builder{}
		builder.WriteString("*" + strconv.Itoa(len(r.array)) + redis.CRLF)
		for _, element := range r.array {
			builder.Write(element.ToBytes())
		}
		return []byte(builder.String())
	}
	return nil
}

// Equal compares two reply trees structurally.
func (r *Reply) Equal(other *Reply) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.typ != other.typ || r.null != other.null {
		return false
	}
	switch r.typ {
	case TypeStatus, TypeBulkString:
		return bytes.Equal(r.str, other.str)
	case TypeInteger:
		return r.number == other.number
	case TypeError:
		return r.err.Kind == other.err.Kind && r.err.Message == other.err.Message
	case TypeArray:
		if len(r.array) != len(other.array) {
			return false
		}
		for i := range r.array {
			if !r.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	}
	return false
}
