package tcp

import (
	"context"
	"crypto/tls"
	"httpjar/network/ip"
	"httpjar/transport"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

type DialerOptions struct {
	// Timeout limits connection establishment including TLS handshake.
	Timeout time.Duration

	// TLSConfig is cloned for every secure connection. ServerName is overwritten.
	TLSConfig *tls.Config

	// Proxy maps a target scheme ("http", "https") to a proxy URL.
	// Supported proxy schemes are socks5, socks5h and http.
	Proxy map[string]string
}

type Dialer struct {
	opts    DialerOptions
	direct  *net.Dialer
	proxies map[string]proxy.Dialer
	logger  *slog.Logger
}

var _ transport.ConnDialer = (*Dialer)(nil)

var registerOnce sync.Once

func NewDialer(opts DialerOptions, logger *slog.Logger) (*Dialer, error) {
	registerOnce.Do(func() { proxy.RegisterDialerType("http", newConnectDialer) })

	d := &Dialer{
		opts:    opts,
		direct:  &net.Dialer{Timeout: opts.Timeout},
		proxies: make(map[string]proxy.Dialer),
		logger:  logger,
	}

	for scheme, raw := range opts.Proxy {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing proxy url for %q", scheme)
		}

		pd, err := proxy.FromURL(u, d.direct)
		if err != nil {
			return nil, errors.Wrapf(err, "creating proxy dialer for %q", scheme)
		}
		d.proxies[scheme] = pd
	}

	return d, nil
}

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	target, ok := addr.(Addr)
	if !ok {
		return nil, errors.Wrapf(transport.ErrNetUnreachable, "unsupported address %s", addr)
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	nc, err := d.dialRaw(ctx, target)
	if err != nil {
		return nil, mapDialError(err, target)
	}

	if target.Secure() {
		cfg := &tls.Config{}
		if d.opts.TLSConfig != nil {
			cfg = d.opts.TLSConfig.Clone()
		}
		cfg.ServerName = target.ServerName()

		tlsConn := tls.Client(nc, cfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = nc.Close()
			return nil, errors.Wrap(err, "tls handshake")
		}
		nc = tlsConn
	}

	d.logger.Debug("connection established",
		slog.String("remote", target.String()),
		slog.Bool("tls", target.Secure()),
	)

	return newConn(nc, target), nil
}

func (d *Dialer) dialRaw(ctx context.Context, target Addr) (net.Conn, error) {
	scheme := "http"
	if target.Secure() {
		scheme = "https"
	}

	pd, ok := d.proxies[scheme]
	if !ok {
		return d.direct.DialContext(ctx, "tcp", target.String())
	}

	d.logger.Debug("dialing through proxy", slog.String("scheme", scheme))
	if cd, ok := pd.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", target.String())
	}
	return pd.Dial("tcp", target.String())
}

func mapDialError(err error, target Addr) error {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return errors.Wrapf(transport.ErrConnRefused, "dialing %s", target)
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return errors.Wrapf(transport.ErrNetUnreachable, "dialing %s", target)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return errors.Wrapf(transport.ErrDeadLineExceeded, "dialing %s", target)
	}
	return errors.Wrapf(err, "dialing %s", target)
}

// conn adapts [net.Conn] into [transport.Conn].
type conn struct {
	nc     net.Conn
	local  transport.Addr
	remote transport.Addr
}

var _ transport.Conn = (*conn)(nil)

func newConn(nc net.Conn, remote Addr) *conn {
	c := &conn{nc: nc, remote: remote}
	if tcpAddr, ok := nc.LocalAddr().(*net.TCPAddr); ok {
		raw := tcpAddr.IP
		if v4 := raw.To4(); v4 != nil {
			raw = v4
		}
		if addr, err := ip.FromBytes(raw); err == nil {
			c.local = NewAddr(addr, uint16(tcpAddr.Port))
		}
	}
	return c
}

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.nc.Read(p)
	return n, mapIOError(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.nc.Write(p)
	return n, mapIOError(err)
}

func (c *conn) Close() error {
	if err := c.nc.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (c *conn) LocalAddr() transport.Addr  { return c.local }
func (c *conn) RemoteAddr() transport.Addr { return c.remote }

func (c *conn) SetReadDeadLine(t time.Time)  { _ = c.nc.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { _ = c.nc.SetWriteDeadline(t) }

func mapIOError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, syscall.ECONNRESET):
		return transport.ErrConnClosed
	case errors.Is(err, os.ErrDeadlineExceeded):
		return transport.ErrDeadLineExceeded
	}
	return err
}
