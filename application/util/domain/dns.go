package domain

import (
	"context"
	"httpjar/network/ip"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// dnsLookuper queries A and AAAA records from a single name server.
type dnsLookuper struct {
	server string
	client *dns.Client
}

var _ Lookuper = (*dnsLookuper)(nil)

// NewDNSLookuper creates a lookuper querying server ("host:port") over network ("udp" or "tcp").
func NewDNSLookuper(server, network string, timeout time.Duration) *dnsLookuper {
	return &dnsLookuper{
		server: server,
		client: &dns.Client{Net: network, Timeout: timeout},
	}
}

func (d *dnsLookuper) LookupIP(ctx context.Context, domain string) ([]ip.Addr, error) {
	var (
		addrs    []ip.Addr
		firstErr error
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		found, err := d.query(ctx, domain, qtype)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		addrs = append(addrs, found...)
	}

	// One family answering is enough.
	switch {
	case len(addrs) > 0:
		return addrs, nil
	case firstErr != nil:
		return nil, firstErr
	}
	return nil, errors.Wrap(ErrDomainNotFound, domain)
}

func (d *dnsLookuper) query(ctx context.Context, domain string, qtype uint16) ([]ip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	reply, _, err := d.client.ExchangeContext(ctx, msg, d.server)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", dns.TypeToString[qtype])
	}

	switch reply.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, errors.Wrap(ErrDomainNotFound, domain)
	default:
		return nil, errors.Errorf("name server replied %s", dns.RcodeToString[reply.Rcode])
	}

	var addrs []ip.Addr
	for _, rr := range reply.Answer {
		var raw []byte
		switch rec := rr.(type) {
		case *dns.A:
			raw = rec.A.To4()
		case *dns.AAAA:
			raw = rec.AAAA.To16()
		default:
			continue
		}

		addr, err := ip.FromBytes(raw)
		if err != nil {
			continue
		}
		addrs = append(addrs, addr)
	}

	return addrs, nil
}

type cacheEntry struct {
	addrs     []ip.Addr
	expiresAt time.Time
}

// cachedLookuper memoizes successful lookups of the underlying lookuper for ttl.
type cachedLookuper struct {
	underlying Lookuper
	clock      clock.Clock
	ttl        time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

var _ Lookuper = (*cachedLookuper)(nil)

func NewCachedLookuper(underlying Lookuper, clock clock.Clock, ttl time.Duration) *cachedLookuper {
	return &cachedLookuper{
		underlying: underlying,
		clock:      clock,
		ttl:        ttl,
		entries:    make(map[string]cacheEntry),
	}
}

func (c *cachedLookuper) LookupIP(ctx context.Context, domain string) ([]ip.Addr, error) {
	key := strings.ToLower(domain)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.clock.Now().Before(entry.expiresAt) {
		return entry.addrs, nil
	}

	addrs, err := c.underlying.LookupIP(ctx, domain)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{addrs: addrs, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()

	return addrs, nil
}

// Invalidate drops the cached entry of domain.
func (c *cachedLookuper) Invalidate(domain string) {
	c.mu.Lock()
	delete(c.entries, strings.ToLower(domain))
	c.mu.Unlock()
}
