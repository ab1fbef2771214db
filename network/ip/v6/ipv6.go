package ipv6

import (
	"bytes"
	"encoding/binary"
	ipv4 "httpjar/network/ip/v4"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedAddr = errors.New("malformed ipv6 address")

type Addr [16]byte

// ParseAddr parses the text form of an IPv6 address.
// The last 32 bits may be written as a dotted IPv4 address.
// Reference: https://datatracker.ietf.org/doc/html/rfc4291#section-2.2
func ParseAddr(s string) (Addr, error) {
	head, tail, compressed := strings.Cut(s, "::")
	if compressed && strings.Contains(tail, "::") {
		return Addr{}, errors.Wrap(ErrMalformedAddr, "'::' appears more than once")
	}

	hi, err := parseGroups(head, !compressed)
	if err != nil {
		return Addr{}, err
	}
	lo, err := parseGroups(tail, true)
	if err != nil {
		return Addr{}, err
	}

	switch {
	case !compressed && len(hi) != len(Addr{}):
		return Addr{}, errors.Wrapf(ErrMalformedAddr, "%d bytes instead of 16", len(hi))
	case compressed && len(hi)+len(lo) > len(Addr{})-2:
		return Addr{}, errors.Wrap(ErrMalformedAddr, "'::' must stand for at least one group")
	}

	var addr Addr
	copy(addr[:], hi)
	copy(addr[len(addr)-len(lo):], lo)
	return addr, nil
}

// parseGroups parses colon separated h16 groups.
// When dotted is set, the last group may be an IPv4 address.
func parseGroups(s string, dotted bool) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	groups := strings.Split(s, ":")
	out := make([]byte, 0, 2*len(groups))
	for i, g := range groups {
		if dotted && i == len(groups)-1 && strings.Contains(g, ".") {
			v4, err := ipv4.ParseAddr(g)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedAddr, "embedded ipv4 %q", g)
			}
			out = append(out, v4[:]...)
			break
		}

		if g == "" || len(g) > 4 {
			return nil, errors.Wrapf(ErrMalformedAddr, "group %q", g)
		}
		n, err := strconv.ParseUint(g, 16, 16)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedAddr, "group %q", g)
		}
		out = binary.BigEndian.AppendUint16(out, uint16(n))
	}

	if len(out) > len(Addr{}) {
		return nil, errors.Wrap(ErrMalformedAddr, "too many groups")
	}
	return out, nil
}

func (a Addr) Raw() []byte   { return bytes.Clone(a[:]) }
func (a Addr) Version() uint { return 6 }

// Unmap returns the embedded ipv4 address if a is an IPv4-mapped address.
func (a Addr) Unmap() (ipv4.Addr, bool) {
	prefix := [12]byte{10: 0xFF, 11: 0xFF}
	if [12]byte(a[:12]) != prefix {
		return ipv4.Addr{}, false
	}
	return ipv4.Addr(a[12:]), true
}

// String formats the address in the recommended text form:
// lowercase hex without leading zeros, with the longest run of
// two or more zero groups replaced by "::".
// Reference: https://datatracker.ietf.org/doc/html/rfc5952#section-4
func (a Addr) String() string {
	var groups [8]uint16
	for i := range groups {
		groups[i] = binary.BigEndian.Uint16(a[2*i:])
	}

	zeroStart, zeroLen := -1, 1
	for i := 0; i < len(groups); {
		j := i
		for j < len(groups) && groups[j] == 0 {
			j++
		}
		if j-i > zeroLen {
			zeroStart, zeroLen = i, j-i
		}
		i = max(j, i+1)
	}

	var b []byte
	for i := 0; i < len(groups); i++ {
		if i == zeroStart {
			b = append(b, "::"...)
			i += zeroLen - 1
			continue
		}
		if len(b) > 0 && b[len(b)-1] != ':' {
			b = append(b, ':')
		}
		b = strconv.AppendUint(b, uint64(groups[i]), 16)
	}
	return string(b)
}
