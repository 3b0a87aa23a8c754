package protocol

import (
	"bytes"
	"testing"
)

func TestReply_ToBytes(t *testing.T) {
	testCases := []struct {
		name   string
		reply  *Reply
		expect string
	}{
		{name: "status", reply: NewStatusReply("OK"), expect: "+OK\r\n"},
		{name: "integer", reply: NewIntegerReply(-42), expect: ":-42\r\n"},
		{name: "bulk", reply: NewBulkStringReply([]byte("bar")), expect: "$3\r\nbar\r\n"},
		{name: "empty-bulk", reply: NewBulkStringReply([]byte{}), expect: "$0\r\n\r\n"},
		{name: "nil-bulk", reply: NilBulkReply, expect: "$-1\r\n"},
		{name: "nil-array", reply: NilArrayReply, expect: "*-1\r\n"},
		{name: "empty-array", reply: EmptyListReply, expect: "*0\r\n"},
		{name: "error", reply: NewErrorReplyFromLine("ERR unknown command 'FOO'"), expect: "-ERR unknown command 'FOO'\r\n"},
		{name: "error-kind-only", reply: NewErrorReplyFromLine("LOADING"), expect: "-LOADING\r\n"},
		{
			name: "nested-array",
			reply: NewArrayReply([]*Reply{
				NewIntegerReply(1),
				NewArrayReply([]*Reply{NewStatusReply("OK")}),
				NilBulkReply,
			}),
			expect: "*3\r\n:1\r\n*1\r\n+OK\r\n$-1\r\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.reply.ToBytes(); !bytes.Equal(got, []byte(tc.expect)) {
				t.Logf("expect: %q, got: %q", tc.expect, got)
				t.FailNow()
			}
		})
	}
}

func TestNewErrorReplyFromLine(t *testing.T) {
	testCases := []struct {
		name          string
		line          string
		expectKind    string
		expectMessage string
	}{
		{name: "err", line: "ERR wrong number of arguments", expectKind: "ERR", expectMessage: "wrong number of arguments"},
		{name: "wrongtype", line: "WRONGTYPE Operation against a key holding the wrong kind of value", expectKind: "WRONGTYPE", expectMessage: "Operation against a key holding the wrong kind of value"},
		{name: "kind-only", line: "LOADING", expectKind: "LOADING", expectMessage: ""},
		{name: "no-kind", line: "something went wrong", expectKind: "", expectMessage: "something went wrong"},
		{name: "mixed-case-token", line: "Err lowercase-ish prefix", expectKind: "", expectMessage: "Err lowercase-ish prefix"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewErrorReplyFromLine(tc.line).Err()
			if err.Kind != tc.expectKind || err.Message != tc.expectMessage {
				t.Logf("expect kind %q message %q, got kind %q message %q", tc.expectKind, tc.expectMessage, err.Kind, err.Message)
				t.FailNow()
			}
		})
	}
}

func TestReply_Equal(t *testing.T) {
	a := NewArrayReply([]*Reply{NewIntegerReply(1), NilBulkReply})
	b := NewArrayReply([]*Reply{NewIntegerReply(1), NilBulkReply})
	if !a.Equal(b) {
		t.Fatal("identical trees must compare equal")
	}
	c := NewArrayReply([]*Reply{NewIntegerReply(1), NewBulkStringReply([]byte{})})
	if a.Equal(c) {
		t.Fatal("nil bulk and empty bulk must not compare equal")
	}
	if NilArrayReply.Equal(EmptyListReply) {
		t.Fatal("nil array and empty array must not compare equal")
	}
}
