package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrDeadLineExceeded   = errors.New("deadline exceeded")
	ErrNetUnreachable     = errors.New("network is unreachable")
	ErrConnRefused        = errors.New("connection refused")
	ErrAddrAlreadyInUse   = errors.New("address already in use")
)

// Conn is a reliable, ordered byte stream.
// Read and Write may be called from different goroutines.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	LocalAddr() Addr
	RemoteAddr() Addr

	// SetReadDeadLine makes pending and future reads fail with [ErrDeadLineExceeded]
	// once t has passed. The zero time clears the deadline.
	SetReadDeadLine(t time.Time)
	SetWriteDeadLine(t time.Time)
}

// ConnDialer opens client connections.
type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}

// ConnListener hands out server connections. Only tests serve.
type ConnListener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
}
