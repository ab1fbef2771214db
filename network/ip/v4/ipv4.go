package ipv4

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedAddr = errors.New("malformed ipv4 address")

type Addr [4]byte

// ParseAddr parses a dotted-decimal address.
// Octets with a leading zero are rejected since some resolvers read them as octal.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func ParseAddr(s string) (Addr, error) {
	var addr Addr
	rest := s
	for i := range addr {
		octet, tail, found := strings.Cut(rest, ".")
		if found == (i == len(addr)-1) {
			return Addr{}, errors.Wrapf(ErrMalformedAddr, "%q does not have 4 octets", s)
		}

		n, err := parseOctet(octet)
		if err != nil {
			return Addr{}, errors.Wrapf(err, "octet %d of %q", i+1, s)
		}
		addr[i], rest = n, tail
	}
	return addr, nil
}

func parseOctet(s string) (byte, error) {
	if s == "" || len(s) > 3 || (len(s) > 1 && s[0] == '0') {
		return 0, ErrMalformedAddr
	}
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return 0, ErrMalformedAddr
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, ErrMalformedAddr
	}
	return byte(n), nil
}

func (a Addr) Raw() []byte   { return bytes.Clone(a[:]) }
func (a Addr) Version() uint { return 4 }

func (a Addr) String() string {
	b := make([]byte, 0, len("255.255.255.255"))
	for i, octet := range a {
		if i > 0 {
			b = append(b, '.')
		}
		b = strconv.AppendUint(b, uint64(octet), 10)
	}
	return string(b)
}
