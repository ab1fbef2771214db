package uri

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	classUnreserved uint8 = 1 << iota
	classSubDelim
	classHex
)

// classes maps every byte to its character classes.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2
var classes = func() (t [256]uint8) {
	for c := 'a'; c <= 'z'; c++ {
		t[c] |= classUnreserved
	}
	for c := 'A'; c <= 'Z'; c++ {
		t[c] |= classUnreserved
	}
	for c := '0'; c <= '9'; c++ {
		t[c] |= classUnreserved | classHex
	}
	for _, c := range "abcdefABCDEF" {
		t[c] |= classHex
	}
	for _, c := range "-._~" {
		t[c] |= classUnreserved
	}
	for _, c := range "!$&'()*+,;=" {
		t[c] |= classSubDelim
	}
	return t
}()

type component uint8

const (
	componentUserInfo component = iota
	componentRegName
	componentPath
	componentQuery // fragment shares the same rule
)

// allowed reports whether c may appear literally in comp.
func allowed(c byte, comp component) bool {
	if classes[c]&(classUnreserved|classSubDelim) != 0 {
		return true
	}
	switch comp {
	case componentUserInfo:
		return c == ':'
	case componentPath:
		return c == ':' || c == '@' || c == '/'
	case componentQuery:
		return c == ':' || c == '@' || c == '/' || c == '?'
	}
	return false
}

func isPctEncoded(s string, i int) bool {
	return i+2 < len(s) && s[i] == '%' &&
		classes[s[i+1]]&classHex != 0 && classes[s[i+2]]&classHex != 0
}

// decode validates s as an escaped comp and unescapes it.
func decode(s string, comp component) (string, error) {
	if !strings.ContainsRune(s, '%') {
		for i := 0; i < len(s); i++ {
			if !allowed(s[i], comp) {
				return "", errors.Errorf("invalid byte %q at %d", s[i], i)
			}
		}
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '%':
			if !isPctEncoded(s, i) {
				return "", errors.Errorf("malformed percent-encoding at %d", i)
			}
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		case allowed(c, comp):
			b.WriteByte(c)
		default:
			return "", errors.Errorf("invalid byte %q at %d", c, i)
		}
	}
	return b.String(), nil
}

// encode escapes every byte not allowed literally in comp.
func encode(s string, comp component) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed(c, comp) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0F])
	}
	return b.String()
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
