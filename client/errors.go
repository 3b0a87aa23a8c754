package client

import "errors"

// ErrClosed is returned by calls on a closed client.
var ErrClosed = errors.New("client is closed")

// TransportError wraps an I/O failure on the underlying connection. The
// affected connection has already been discarded; the command is not
// retried here because Redis commands are not uniformly idempotent.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
