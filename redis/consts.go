package redis

const (
	CRLF = "\r\n"

	SingleLinePrefix = '+'
	ErrorPrefix      = '-'
	NumberPrefix     = ':'
	BulkPrefix       = '$'
	ArrayPrefix      = '*'
)

var (
	NullBulkStringBytes = []byte("$-1\r\n")
	NullArrayBytes      = []byte("*-1\r\n")
)
