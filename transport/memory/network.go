package memory

import (
	"context"
	"httpjar/transport"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// backlog is the number of dialed connections waiting for Accept.
const backlog = 16

// Network connects dialers to listeners by name, without any real socket.
type Network struct {
	clock clock.Clock

	mu        sync.Mutex
	listeners map[Addr]*Listener
	dialed    int
}

var _ transport.ConnDialer = (*Network)(nil)

func NewNetwork(clk clock.Clock) *Network {
	return &Network{
		clock:     clk,
		listeners: make(map[Addr]*Listener),
	}
}

func (n *Network) Listen(addr Addr) (*Listener, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.listeners[addr]; ok {
		return nil, errors.Wrapf(transport.ErrAddrAlreadyInUse, "listening on %s", addr)
	}

	l := &Listener{
		addr:    addr,
		network: n,
		pending: make(chan *Conn, backlog),
		closed:  make(chan struct{}),
	}
	n.listeners[addr] = l
	return l, nil
}

// Dial queues a connection on the listener of addr.
// It fails with [transport.ErrConnRefused] when nothing listens or the backlog is full.
func (n *Network) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, ok := addr.(Addr)
	if !ok {
		return nil, errors.Wrapf(transport.ErrNetUnreachable, "unsupported address %s", addr)
	}

	n.mu.Lock()
	l, ok := n.listeners[target]
	n.dialed++
	local := Addr("dialer-" + strconv.Itoa(n.dialed))
	n.mu.Unlock()

	if !ok {
		return nil, errors.Wrapf(transport.ErrConnRefused, "dialing %s", target)
	}

	client, server := NewPair(local, target, n.clock)
	if err := l.enqueue(server); err != nil {
		return nil, err
	}
	return client, nil
}

type Listener struct {
	addr    Addr
	network *Network

	mu      sync.Mutex
	pending chan *Conn
	closed  chan struct{}
}

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) enqueue(c *Conn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if isClosed(l.closed) {
		return errors.Wrapf(transport.ErrConnRefused, "%s is closed", l.addr)
	}

	select {
	case l.pending <- c:
		return nil
	default:
		return errors.Wrapf(transport.ErrConnRefused, "backlog of %s is full", l.addr)
	}
}

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case c := <-l.pending:
		return c, nil
	default:
	}

	select {
	case c := <-l.pending:
		return c, nil
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close refuses new connections and closes the ones not accepted yet.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if isClosed(l.closed) {
		return transport.ErrConnListenerClosed
	}
	close(l.closed)

drain:
	for {
		select {
		case c := <-l.pending:
			c.Close()
		default:
			break drain
		}
	}

	l.network.mu.Lock()
	delete(l.network.listeners, l.addr)
	l.network.mu.Unlock()

	return nil
}
