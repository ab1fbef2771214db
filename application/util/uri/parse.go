package uri

import (
	ipv4 "httpjar/network/ip/v4"
	ipv6 "httpjar/network/ip/v6"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedURI = errors.New("malformed uri")

const maxHostLength = 255

// Parse parses a URI reference.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.1
func Parse(raw string) (URI, error) {
	if i := strings.IndexFunc(raw, isCTL); i >= 0 {
		return URI{}, errors.Wrapf(ErrMalformedURI, "control character at %d", i)
	}

	var u URI

	scheme, rest, err := cutScheme(raw)
	if err != nil {
		return URI{}, err
	}
	u.Scheme = strings.ToLower(scheme)

	rest, frag, hasFrag := strings.Cut(rest, "#")
	rest, query, hasQuery := strings.Cut(rest, "?")

	if after, ok := strings.CutPrefix(rest, "//"); ok {
		authority, path := after, ""
		if i := strings.IndexByte(after, '/'); i >= 0 {
			authority, path = after[:i], after[i:]
		}

		a, err := parseAuthority(authority)
		if err != nil {
			return URI{}, errors.Wrapf(err, "authority %q", authority)
		}
		u.Authority, rest = &a, path
	}

	if u.Path, err = decode(rest, componentPath); err != nil {
		return URI{}, errors.Wrapf(ErrMalformedURI, "path: %s", err)
	}

	if hasQuery {
		q, err := decode(query, componentQuery)
		if err != nil {
			return URI{}, errors.Wrapf(ErrMalformedURI, "query: %s", err)
		}
		u.Query = &q
	}

	if hasFrag {
		f, err := decode(frag, componentQuery)
		if err != nil {
			return URI{}, errors.Wrapf(ErrMalformedURI, "fragment: %s", err)
		}
		u.Fragment = &f
	}

	return u, nil
}

func isCTL(r rune) bool { return r < ' ' || r == 0x7F }

// cutScheme splits "scheme:" off raw. A reference whose first ':' comes
// after '/', '?' or '#' has no scheme.
//
//	scheme = ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )
func cutScheme(raw string) (scheme, rest string, err error) {
	i := strings.IndexAny(raw, ":/?#")
	if i < 0 || raw[i] != ':' {
		return "", raw, nil
	}

	scheme = raw[:i]
	for j := 0; j < len(scheme); j++ {
		c := scheme[j]
		isAlpha := ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
		switch {
		case isAlpha:
		case j > 0 && (('0' <= c && c <= '9') || c == '+' || c == '-' || c == '.'):
		default:
			return "", "", errors.Wrapf(ErrMalformedURI, "scheme %q", scheme)
		}
	}
	if scheme == "" {
		return "", "", errors.Wrap(ErrMalformedURI, "empty scheme")
	}

	return scheme, raw[i+1:], nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2
func parseAuthority(raw string) (a Authority, err error) {
	if i := strings.LastIndexByte(raw, '@'); i >= 0 {
		if a.UserInfo, err = decode(raw[:i], componentUserInfo); err != nil {
			return Authority{}, errors.Wrapf(ErrMalformedURI, "userinfo: %s", err)
		}
		raw = raw[i+1:]
	}

	host, port := raw, ""
	if strings.HasPrefix(raw, "[") {
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			return Authority{}, errors.Wrap(ErrMalformedURI, "missing ']' in IP literal")
		}
		host, port = raw[:end+1], raw[end+1:]
		if port != "" && port[0] != ':' {
			return Authority{}, errors.Wrapf(ErrMalformedURI, "unexpected %q after IP literal", port)
		}
	} else if i := strings.LastIndexByte(raw, ':'); i >= 0 {
		host, port = raw[:i], raw[i:]
	}

	if a.Host, err = parseHost(host); err != nil {
		return Authority{}, err
	}

	if port = strings.TrimPrefix(port, ":"); port != "" {
		n, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return Authority{}, errors.Wrapf(ErrMalformedURI, "port %q", port)
		}
		p := uint16(n)
		a.Port = &p
	}

	return a, nil
}

// parseHost accepts an IP literal, an IPv4 address or a reg-name.
// The result is lowercased.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func parseHost(raw string) (string, error) {
	if len(raw) > maxHostLength {
		return "", errors.Wrapf(ErrMalformedURI, "host is longer than %d", maxHostLength)
	}

	if literal, ok := strings.CutPrefix(raw, "["); ok {
		literal = strings.TrimSuffix(literal, "]")
		if _, err := ipv6.ParseAddr(literal); err != nil && !isIPvFuture(literal) {
			return "", errors.Wrapf(ErrMalformedURI, "IP literal %q", raw)
		}
		return strings.ToLower(raw), nil
	}

	if _, err := ipv4.ParseAddr(raw); err == nil {
		return raw, nil
	}

	host, err := decode(raw, componentRegName)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedURI, "host: %s", err)
	}
	return strings.ToLower(host), nil
}

//	IPvFuture = "v" 1*HEXDIG "." 1*( unreserved / sub-delims / ":" )
func isIPvFuture(s string) bool {
	rest, ok := strings.CutPrefix(s, "v")
	if !ok {
		rest, ok = strings.CutPrefix(s, "V")
	}
	if !ok {
		return false
	}

	version, addr, ok := strings.Cut(rest, ".")
	if !ok || version == "" || addr == "" {
		return false
	}
	for i := 0; i < len(version); i++ {
		if classes[version[i]]&classHex == 0 {
			return false
		}
	}
	for i := 0; i < len(addr); i++ {
		if !allowed(addr[i], componentUserInfo) {
			return false
		}
	}
	return true
}
