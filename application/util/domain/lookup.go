package domain

import (
	"context"
	"httpjar/network/ip"
	"maps"
	"net"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrDomainNotFound = errors.New("domain not found")

type Lookuper interface {
	LookupIP(ctx context.Context, domain string) (addrs []ip.Addr, err error)
}

type mapLookuper struct {
	mu  sync.RWMutex
	set map[string][]ip.Addr
}

var _ Lookuper = (*mapLookuper)(nil)

func NewMapLookuper(set map[string][]ip.Addr) *mapLookuper {
	if set == nil {
		set = make(map[string][]ip.Addr)
	}
	return &mapLookuper{set: maps.Clone(set)}
}

func (m *mapLookuper) LookupIP(ctx context.Context, domain string) (addrs []ip.Addr, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	addrs, ok := m.set[strings.ToLower(domain)]
	if !ok {
		return nil, ErrDomainNotFound
	}
	return addrs, nil
}

func (m *mapLookuper) Set(domain string, addrs []ip.Addr) {
	if len(addrs) == 0 {
		return
	}
	m.mu.Lock()
	m.set[strings.ToLower(domain)] = addrs
	m.mu.Unlock()
}

func (m *mapLookuper) Del(domain string) {
	m.mu.Lock()
	delete(m.set, strings.ToLower(domain))
	m.mu.Unlock()
}

// systemLookuper resolves with the resolver of the operating system.
type systemLookuper struct{ resolver *net.Resolver }

var _ Lookuper = (*systemLookuper)(nil)

func NewSystemLookuper() *systemLookuper {
	return &systemLookuper{resolver: net.DefaultResolver}
}

func (s *systemLookuper) LookupIP(ctx context.Context, domain string) ([]ip.Addr, error) {
	found, err := s.resolver.LookupIPAddr(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, errors.Wrap(ErrDomainNotFound, domain)
		}
		return nil, errors.Wrap(err, "looking up domain")
	}

	addrs := make([]ip.Addr, 0, len(found))
	for _, a := range found {
		raw := a.IP
		if v4 := raw.To4(); v4 != nil {
			raw = v4
		}
		addr, err := ip.FromBytes(raw)
		if err != nil {
			continue
		}
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return nil, errors.Wrap(ErrDomainNotFound, domain)
	}

	return addrs, nil
}
