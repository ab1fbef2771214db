package client

import (
	"context"
	"httpjar/application/http/cookie"
	"httpjar/application/http/semantic"
	"httpjar/application/http/transfer"
	"httpjar/application/util/domain"
	"httpjar/application/util/uri"
	"httpjar/network/ip"
	"httpjar/transport"
	"httpjar/transport/tcp"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Client sends requests one connection per hop, keeping cookies in a jar
// and following redirects when enabled.
type Client struct {
	opts Options

	logger *slog.Logger
	clock  clock.Clock

	transfer   *transfer.CodingPipeliner
	lookuper   domain.Lookuper
	connDialer transport.ConnDialer
	jar        *cookie.Jar

	combineAddr CombineAddrFunc

	mu      sync.Mutex
	history []RedirectEntry
}

// CombineAddrFunc builds the transport address to dial for target.
type CombineAddrFunc func(net ip.Addr, port uint16, target uri.URI) transport.Addr

// RedirectEntry records a request which was answered with a followed redirect.
type RedirectEntry struct {
	URI        uri.URI
	Headers    semantic.Headers
	StatusCode uint
}

// New creates a client. When jar is nil, an empty one is created from opts.
func New(
	d transport.ConnDialer,
	lookuper domain.Lookuper,
	jar *cookie.Jar,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	if jar == nil {
		jar = newJar(opts, clock, logger, afero.NewOsFs())
	}

	client := &Client{
		connDialer: d,
		lookuper:   lookuper,
		jar:        jar,
		logger:     logger,
		opts:       opts,
		clock:      clock,
	}

	client.combineAddr = func(net ip.Addr, port uint16, target uri.URI) transport.Addr {
		addr := tcp.NewAddr(net, port)
		if target.Scheme == "https" {
			return addr.WithTLS(target.Host())
		}
		return addr
	}

	client.transfer = transfer.NewCodingPipeliner(opts.ExtraCoders)

	return client
}

// NewFromOptions creates a client dialing real sockets.
// CookiesFile is loaded when it exists.
func NewFromOptions(opts Options, logger *slog.Logger) (*Client, error) {
	dialer, err := tcp.NewDialer(tcp.DialerOptions{
		Timeout: opts.Timeout,
		Proxy:   opts.Proxy,
	}, logger)
	if err != nil {
		return nil, withKind(ErrInvalidRequest, errors.Wrap(err, "creating dialer"))
	}

	clk := clock.New()

	var lookuper domain.Lookuper = domain.NewSystemLookuper()
	if opts.DNSServer != "" {
		lookuper = domain.NewDNSLookuper(opts.DNSServer, "udp", opts.Timeout)
	}
	lookuper = domain.NewCachedLookuper(lookuper, clk, time.Minute)

	fs := afero.NewOsFs()
	jar := newJar(opts, clk, logger, fs)

	if opts.CookiesFile != "" {
		exists, err := afero.Exists(fs, opts.CookiesFile)
		if err != nil {
			return nil, errors.Wrap(err, "checking cookies file")
		}

		if exists {
			if err := jar.LoadCookies(opts.CookiesFile); err != nil {
				return nil, err
			}
		} else {
			logger.Info("Cookies file does not exist yet", slog.String("path", opts.CookiesFile))
		}
	}

	return New(dialer, lookuper, jar, logger, clk, opts), nil
}

func newJar(opts Options, clk clock.Clock, logger *slog.Logger, fs afero.Fs) *cookie.Jar {
	return cookie.NewJar(cookie.Options{
		MaxCookies:           opts.MaxCookies,
		MaxCookiesPerDomain:  opts.MaxCookiesPerDomain,
		RejectPublicSuffixes: opts.RejectPublicSuffixes,
		Clock:                clk,
		Logger:               logger,
		Fs:                   fs,
	})
}

// Jar returns the cookie jar of the client.
func (c *Client) Jar() *cookie.Jar { return c.jar }

// History returns the redirects followed so far.
func (c *Client) History() []RedirectEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]RedirectEntry(nil), c.history...)
}

func (c *Client) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = nil
}

// Send sends request and returns the final response.
// request is never modified.
func (c *Client) Send(ctx context.Context, request *semantic.Request) (*semantic.Response, error) {
	policy := newRedirectPolicy(c.opts)

	base := request
	for {
		prepared, body, err := c.prepare(base)
		if err != nil {
			return nil, err
		}

		res, err := c.roundtrip(ctx, prepared)
		if err != nil {
			return nil, err
		}

		if c.opts.Cookies {
			c.jar.ReceiveFromResponse(prepared, res)
		}

		next, entry, err := policy.next(base, prepared, res, body)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return res, nil
		}

		if c.opts.RedirectsHistory {
			c.mu.Lock()
			c.history = append(c.history, entry)
			c.mu.Unlock()
		}

		target := next.URI.Redacted()
		c.logger.Debug("Following redirect",
			slog.Uint64("status", uint64(res.Status.Code)),
			slog.String("target", target.String()),
		)

		base = next
	}
}

// Close stores the cookies which outlive the session when CookiesFile is set.
// Failures are logged, never returned.
func (c *Client) Close() error {
	if c.opts.CookiesFile == "" {
		return nil
	}

	c.jar.ClearSessionCookies()
	c.jar.ClearExpiredCookies()

	if err := c.jar.StoreCookies(c.opts.CookiesFile); err != nil {
		c.logger.Error("Failed to store cookies",
			slog.String("path", c.opts.CookiesFile),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (c *Client) convertToAddr(ctx context.Context, target uri.URI) (transport.Addr, error) {
	host := target.Host()
	port := target.Port(semantic.DefaultPort(target.Scheme))

	var ipAddrs []ip.Addr
	if addr, err := ip.ParseLiteral(host); err == nil {
		ipAddrs = []ip.Addr{addr}
	} else {
		// Host is a domain name. Resolve it to the ip address.
		result, err := c.lookuper.LookupIP(ctx, host)
		if err != nil {
			return nil, errors.Wrapf(err, "lookup for host(%s) failed", host)
		}
		if len(result) == 0 {
			return nil, errors.Wrapf(domain.ErrDomainNotFound, "no address for host(%s)", host)
		}

		ipAddrs = result
	}

	// Lets simply use the first address.
	return c.combineAddr(ipAddrs[0], port, target), nil
}
