package client

import (
	"context"
	"net"
	"time"
)

const (
	defaultPoolSize       = 8
	defaultDialTimeout    = 5 * time.Second
	defaultCommandTimeout = 3 * time.Second
	defaultWriteTimeout   = 3 * time.Second
)

// Options configures a Client.
type Options struct {
	// PoolSize bounds the number of concurrently open connections.
	PoolSize int
	// DialTimeout bounds connection establishment, including backoff retries.
	DialTimeout time.Duration
	// CommandTimeout is applied to calls whose context carries no deadline.
	// Zero means such calls wait indefinitely.
	CommandTimeout time.Duration
	// WriteTimeout bounds the write half of each round trip independently of
	// the call context, so a stalled send fails before the full command
	// timeout. Zero leaves writes bounded by the context alone.
	WriteTimeout time.Duration
	// EnableMetrics toggles the prometheus instrumentation.
	EnableMetrics bool
	// Dialer produces connected, authenticated streams. The default dials a
	// plain TCP connection; TLS or AUTH setups inject their own.
	Dialer DialFunc
}

// Option mutates Options, functional-options style.
type Option func(*Options)

func WithPoolSize(size int) Option {
	return func(o *Options) {
		o.PoolSize = size
	}
}

func WithDialTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.DialTimeout = timeout
	}
}

func WithCommandTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.CommandTimeout = timeout
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.WriteTimeout = timeout
	}
}

func WithMetrics(enabled bool) Option {
	return func(o *Options) {
		o.EnableMetrics = enabled
	}
}

// WithDialer injects the transport factory.
func WithDialer(dial DialFunc) Option {
	return func(o *Options) {
		o.Dialer = dial
	}
}

func defaultOptions(address string) *Options {
	return &Options{
		PoolSize:       defaultPoolSize,
		DialTimeout:    defaultDialTimeout,
		CommandTimeout: defaultCommandTimeout,
		WriteTimeout:   defaultWriteTimeout,
		EnableMetrics:  true,
		Dialer: func(ctx context.Context) (net.Conn, error) {
			dialer := net.Dialer{}
			return dialer.DialContext(ctx, "tcp", address)
		},
	}
}
