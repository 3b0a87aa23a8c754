package parser

import (
	"bufio"
	"io"
	"strconv"

	"redicli/redis"
	"redicli/redis/protocol"
)

// maxBulkLength caps a single bulk string at 512MB, the server-side limit.
// Anything larger is a corrupted length field, not a real reply.
const maxBulkLength = 512 * 1024 * 1024

// ParseReply reads exactly one reply from the reader, consuming exactly the
// bytes that belong to it. The reader is left positioned at the start of the
// next reply, which is what connection reuse and pipelining depend on.
//
// A truncated input fails with protocol.ErrIncompleteReply; malformed bytes
// fail with *protocol.ProtocolError. Other I/O errors pass through for the
// transport layer to classify.
func ParseReply(reader *bufio.Reader) (*protocol.Reply, error) {
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, &protocol.ProtocolError{Reason: "empty reply line"}
	}
	switch line[0] {
	case redis.SingleLinePrefix:
		return protocol.NewStatusReply(string(line[1:])), nil
	case redis.ErrorPrefix:
		return protocol.NewErrorReplyFromLine(string(line[1:])), nil
	case redis.NumberPrefix:
		number, err := strconv.ParseInt(string(line[1:]), 10, 64)
		if err != nil {
			return nil, &protocol.ProtocolError{Reason: "invalid integer reply: " + string(line[1:])}
		}
		return protocol.NewIntegerReply(number), nil
	case redis.BulkPrefix:
		return readBulkString(reader, line)
	case redis.ArrayPrefix:
		return readArray(reader, line)
	}
	return nil, &protocol.ProtocolError{Reason: "invalid type prefix: " + strconv.QuoteRune(rune(line[0]))}
}

/*
	Read RESP Bulk string
	${len}\r\n{content}\r\n
	length -1 is the nil sentinel and carries no payload line.
*/
func readBulkString(reader *bufio.Reader, header []byte) (*protocol.Reply, error) {
	length, err := strconv.Atoi(string(header[1:]))
	if err != nil {
		return nil, &protocol.ProtocolError{Reason: "invalid bulk length: " + string(header[1:])}
	}
	if length == -1 {
		return protocol.NilBulkReply, nil
	}
	if length < 0 || length > maxBulkLength {
		return nil, &protocol.ProtocolError{Reason: "invalid bulk length: " + strconv.Itoa(length)}
	}
	// read payload with trailing \r\n
	buffer := make([]byte, length+2)
	if _, err := io.ReadFull(reader, buffer); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, protocol.ErrIncompleteReply
		}
		return nil, err
	}
	if buffer[length] != '\r' || buffer[length+1] != '\n' {
		return nil, &protocol.ProtocolError{Reason: "bulk string not terminated by CRLF"}
	}
	return protocol.NewBulkStringReply(buffer[:length]), nil
}

/*
	Read RESP Array
	*{count}\r\n followed by count nested replies, recursively.
	count -1 is the nil sentinel.
*/
func readArray(reader *bufio.Reader, header []byte) (*protocol.Reply, error) {
	count, err := strconv.Atoi(string(header[1:]))
	if err != nil {
		return nil, &protocol.ProtocolError{Reason: "invalid array length: " + string(header[1:])}
	}
	if count == -1 {
		return protocol.NilArrayReply, nil
	}
	if count < 0 {
		return nil, &protocol.ProtocolError{Reason: "invalid array length: " + strconv.Itoa(count)}
	}
	elements := make([]*protocol.Reply, count)
	for i := 0; i < count; i++ {
		element, err := ParseReply(reader)
		if err != nil {
			return nil, err
		}
		elements[i] = element
	}
	return protocol.NewArrayReply(elements), nil
}

func readLine(reader *bufio.Reader) ([]byte, error) {
	msg, err := reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF {
			return nil, protocol.ErrIncompleteReply
		}
		return nil, err
	}
	if len(msg) < 2 || msg[len(msg)-2] != '\r' {
		return nil, &protocol.ProtocolError{Reason: "line not terminated by CRLF"}
	}
	return msg[:len(msg)-2], nil
}
