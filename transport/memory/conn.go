package memory

import (
	"httpjar/network"
	"httpjar/transport"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Addr names an endpoint of a [Network].
type Addr string

var _ transport.Addr = Addr("")

func (a Addr) NetworkAddr() network.Addr { return nil }
func (a Addr) Identifier() any           { return string(a) }
func (a Addr) String() string            { return string(a) }

// Conn is one end of an in-memory connection.
// Writes never block. Data written before the peer closes can still be read.
type Conn struct {
	local, remote Addr

	in, out *buffer

	readDeadline, writeDeadline *deadline

	closeOnce sync.Once
	done      chan struct{}
}

var _ transport.Conn = (*Conn)(nil)

// NewPair creates two connected ends.
func NewPair(a, b Addr, clk clock.Clock) (*Conn, *Conn) {
	ab, ba := newBuffer(), newBuffer()
	c1 := &Conn{
		local: a, remote: b,
		in: ba, out: ab,
		readDeadline:  newDeadline(clk),
		writeDeadline: newDeadline(clk),
		done:          make(chan struct{}),
	}
	c2 := &Conn{
		local: b, remote: a,
		in: ab, out: ba,
		readDeadline:  newDeadline(clk),
		writeDeadline: newDeadline(clk),
		done:          make(chan struct{}),
	}
	return c1, c2
}

func (c *Conn) LocalAddr() transport.Addr  { return c.local }
func (c *Conn) RemoteAddr() transport.Addr { return c.remote }

func (c *Conn) Read(p []byte) (int, error) {
	for {
		switch {
		case isClosed(c.done):
			return 0, transport.ErrConnClosed
		case c.readDeadline.exceeded():
			return 0, transport.ErrDeadLineExceeded
		case len(p) == 0:
			return 0, nil
		}

		n, ready, err := c.in.read(p)
		if ready == nil {
			return n, err
		}

		select {
		case <-ready:
		case <-c.done:
		case <-c.readDeadline.wait():
		}
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	switch {
	case isClosed(c.done):
		return 0, transport.ErrConnClosed
	case c.writeDeadline.exceeded():
		return 0, transport.ErrDeadLineExceeded
	}
	return c.out.write(p)
}

// Close closes both directions. The peer reads what was already written, then ErrConnClosed.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.out.close()
		c.in.close()
	})
	return nil
}

func (c *Conn) SetReadDeadLine(t time.Time)  { c.readDeadline.set(t) }
func (c *Conn) SetWriteDeadLine(t time.Time) { c.writeDeadline.set(t) }

// buffer holds one direction of a connection.
type buffer struct {
	mu     sync.Mutex
	data   []byte
	closed bool

	// ready is replaced every time data arrives or the buffer closes.
	ready chan struct{}
}

func newBuffer() *buffer { return &buffer{ready: make(chan struct{})} }

func (b *buffer) write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, transport.ErrConnClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	b.data = append(b.data, p...)
	b.notify()
	return len(p), nil
}

// read copies buffered data into p. When nothing is buffered,
// it returns a channel which fires once that changes.
func (b *buffer) read(p []byte) (int, <-chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.data) > 0 {
		n := copy(p, b.data)
		b.data = b.data[n:]
		return n, nil, nil
	}
	if b.closed {
		return 0, nil, transport.ErrConnClosed
	}
	return 0, b.ready, nil
}

func (b *buffer) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		b.notify()
	}
}

func (b *buffer) notify() {
	close(b.ready)
	b.ready = make(chan struct{})
}

type deadline struct {
	clock clock.Clock

	mu      sync.Mutex
	timer   *clock.Timer
	expired chan struct{}
}

func newDeadline(clk clock.Clock) *deadline {
	return &deadline{clock: clk, expired: make(chan struct{})}
}

// set arms the deadline at t. The zero time disables it.
func (d *deadline) set(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if isClosed(d.expired) {
		d.expired = make(chan struct{})
	}
	if t.IsZero() {
		return
	}

	expired := d.expired
	left := d.clock.Until(t)
	if left <= 0 {
		close(expired)
		return
	}

	d.timer = d.clock.AfterFunc(left, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if !isClosed(expired) {
			close(expired)
		}
	})
}

func (d *deadline) wait() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expired
}

func (d *deadline) exceeded() bool { return isClosed(d.wait()) }

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
