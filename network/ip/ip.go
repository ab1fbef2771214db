package ip

import (
	"httpjar/network"
	ipv4 "httpjar/network/ip/v4"
	ipv6 "httpjar/network/ip/v6"
	"strings"

	"github.com/pkg/errors"
)

type Addr interface {
	network.Addr
	Version() uint
}

var (
	_ Addr = ipv4.Addr{}
	_ Addr = ipv6.Addr{}
)

var ErrNotIPLiteral = errors.New("host is not an ip literal")

// ParseLiteral parses host as an ipv4 address or an ipv6 address.
// IPv6 address may be wrapped with brackets as it appears in the URI.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func ParseLiteral(host string) (Addr, error) {
	if inner, ok := strings.CutPrefix(host, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return nil, errors.Wrap(ErrNotIPLiteral, "missing ']' in ip literal")
		}

		addr, err := ipv6.ParseAddr(inner)
		if err != nil {
			return nil, errors.Wrap(ErrNotIPLiteral, err.Error())
		}
		return addr, nil
	}

	if addr, err := ipv4.ParseAddr(host); err == nil {
		return addr, nil
	}
	if addr, err := ipv6.ParseAddr(host); err == nil {
		return addr, nil
	}

	return nil, ErrNotIPLiteral
}

// IsLiteral reports whether host is an ip literal.
func IsLiteral(host string) bool {
	_, err := ParseLiteral(host)
	return err == nil
}

// FromBytes converts 4 or 16 bytes long raw address into [Addr].
// IPv4-mapped IPv6 address is converted into ipv4 address.
func FromBytes(raw []byte) (Addr, error) {
	switch len(raw) {
	case 4:
		return ipv4.Addr(raw), nil
	case 16:
		var v6 ipv6.Addr
		copy(v6[:], raw)
		if v4, ok := v6.Unmap(); ok {
			return v4, nil
		}
		return v6, nil
	}
	return nil, errors.Errorf("invalid address length: %d", len(raw))
}
