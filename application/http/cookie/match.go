package cookie

import (
	"httpjar/network/ip"
	"strings"
)

// DomainMatches implements domain-match of RFC 6265.
// IP literals, including bracketed IPv6, only match exactly.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.1.3
func DomainMatches(cookieDomain, requestHost string) bool {
	cookieDomain = strings.ToLower(cookieDomain)
	requestHost = strings.ToLower(requestHost)

	if cookieDomain == requestHost {
		return true
	}

	if cookieDomain == "" || ip.IsLiteral(requestHost) {
		return false
	}

	return strings.HasSuffix(requestHost, "."+cookieDomain)
}

// PathMatches implements path-match of RFC 6265.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.1.4
func PathMatches(cookiePath, requestPath string) bool {
	if cookiePath == "/" || cookiePath == requestPath {
		return true
	}

	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}

	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

// DefaultPath returns the directory of the request path.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.1.4
func DefaultPath(requestPath string) string {
	if !strings.HasPrefix(requestPath, "/") {
		return "/"
	}

	idx := strings.LastIndex(requestPath, "/")
	if idx == 0 {
		return "/"
	}

	return requestPath[:idx]
}

// normalizePath makes the request path start with "/".
func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
