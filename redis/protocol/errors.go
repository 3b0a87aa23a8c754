package protocol

import (
	"errors"
	"fmt"
)

// ErrIncompleteReply means the input ended before one full reply was read.
// Over a buffer this is resolved by supplying more bytes; over a live
// connection it means the peer closed mid-reply.
var ErrIncompleteReply = errors.New("incomplete reply: need more bytes")

// ProtocolError reports a malformed byte stream: an unknown type prefix, a
// garbled length field or a missing CRLF. The reply boundary is lost, the
// connection that produced it must be discarded.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

// CommandError is a server-reported error reply. Kind is the leading
// upper-case token when the server sent one ("ERR", "WRONGTYPE", "MOVED"),
// empty otherwise. The protocol stream stayed well formed, the connection
// remains usable.
type CommandError struct {
	Kind    string
	Message string
}

func (e *CommandError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.Kind
	}
	return e.Kind + " " + e.Message
}

// TypeMismatchError reports a reply whose variant is outside the set a
// decode shape accepts. It never masks a CommandError: error replies
// propagate before shape checks run.
type TypeMismatchError struct {
	Expected string
	Actual   ReplyType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s reply, got %s", e.Expected, e.Actual)
}
