package domain

import (
	"context"
	"httpjar/network/ip"
	ipv4 "httpjar/network/ip/v4"
	ipv6 "httpjar/network/ip/v6"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LookuperTestSuite struct {
	suite.Suite

	initial  map[string][]ip.Addr
	lookuper Lookuper
}

func (s *LookuperTestSuite) SetupTest() {
	s.initial = map[string][]ip.Addr{
		"localhost":   {ipv4.Addr{127, 0, 0, 1}, ipv6.Addr{15: 1}},
		"example.com": {ipv4.Addr{1, 1, 1, 1}}, // It's actually cloudflare. But who cares?
	}
}

func (s *LookuperTestSuite) TestLookup() {
	addrs, err := s.lookuper.LookupIP(context.Background(), "localhost")
	s.NoError(err)
	s.Equal([]ip.Addr{ipv4.Addr{127, 0, 0, 1}, ipv6.Addr{15: 1}}, addrs)

	addrs, err = s.lookuper.LookupIP(context.Background(), "EXAMPLE.com")
	s.NoError(err)
	s.Equal([]ip.Addr{ipv4.Addr{1, 1, 1, 1}}, addrs)

	// Non-existent.
	addrs, err = s.lookuper.LookupIP(context.Background(), "non-existent.com")
	s.ErrorIs(err, ErrDomainNotFound)
	s.Zero(addrs)
}

func (s *LookuperTestSuite) TestLookupInitCopied() {
	s.initial["localhost"] = []ip.Addr{ipv4.Addr{10, 0, 0, 1}}

	addrs, err := s.lookuper.LookupIP(context.Background(), "localhost")
	s.NoError(err)
	s.Equal(ip.Addr(ipv4.Addr{127, 0, 0, 1}), addrs[0])
}

type mapLookuperTestSuite struct{ LookuperTestSuite }

func TestMapLookuperTestSuite(t *testing.T) {
	suite.Run(t, new(mapLookuperTestSuite))
}

func (s *mapLookuperTestSuite) SetupTest() {
	s.LookuperTestSuite.SetupTest()
	s.lookuper = NewMapLookuper(s.initial)
}

func (s *mapLookuperTestSuite) TestSetDel() {
	l := s.lookuper.(*mapLookuper)

	l.Set("new.example", []ip.Addr{ipv4.Addr{10, 0, 0, 2}})
	addrs, err := l.LookupIP(context.Background(), "new.example")
	s.NoError(err)
	s.Len(addrs, 1)

	// Empty set is ignored.
	l.Set("new.example", nil)
	_, err = l.LookupIP(context.Background(), "new.example")
	s.NoError(err)

	l.Del("new.example")
	_, err = l.LookupIP(context.Background(), "new.example")
	s.ErrorIs(err, ErrDomainNotFound)
}
