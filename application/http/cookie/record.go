package cookie

import (
	"httpjar/application/util/rule"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// SessionExpiry is the expiry time of a record which has neither
// Max-Age nor Expires attribute.
const SessionExpiry int64 = math.MinInt32

type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteLax
	SameSiteStrict
	SameSiteNone
)

func (s SameSite) String() string {
	switch s {
	case SameSiteLax:
		return "Lax"
	case SameSiteStrict:
		return "Strict"
	case SameSiteNone:
		return "None"
	}
	return ""
}

func parseSameSite(v string) SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return SameSiteLax
	case "strict":
		return SameSiteStrict
	case "none":
		return SameSiteNone
	}
	return SameSiteDefault
}

// Record is a stored cookie with its storage attributes.
// Timestamps are unix seconds.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.3
type Record struct {
	Name  string
	Value string

	// Domain is lowercase without leading dot.
	Domain   string
	HostOnly bool
	// Path always starts with "/".
	Path string

	// ExpiryTime is clamped to int32 range. It is [SessionExpiry] unless Persistent.
	ExpiryTime int64
	Persistent bool

	CreationTime   int64
	LastAccessTime int64

	SecureOnly bool
	HTTPOnly   bool

	// SameSite is kept in memory only.
	SameSite SameSite
}

// IsExpired reports whether r is a persistent record expired at now.
func (r *Record) IsExpired(now int64) bool {
	return r.Persistent && r.ExpiryTime <= now
}

// Matches reports whether r would be sent to host and path.
// secure is true when the request is sent over a secure channel.
func (r *Record) Matches(host, path string, secure bool) bool {
	if r.HostOnly {
		if !strings.EqualFold(r.Domain, host) {
			return false
		}
	} else if !DomainMatches(r.Domain, host) {
		return false
	}

	if r.SecureOnly && !secure {
		return false
	}

	return PathMatches(r.Path, path)
}

// String returns the cookie-pair. It is what is sent in the Cookie header.
func (r *Record) String() string {
	return r.Name + "=" + r.Value
}

// validate reports whether r can be sent in a Cookie header and stored in a jar file.
func (r *Record) validate() error {
	switch {
	case !rule.IsValidToken(r.Name):
		return errors.Wrapf(ErrMalformedCookie, "invalid cookie name %q", r.Name)
	case !rule.IsValidCookieValue(r.Value):
		return errors.Wrapf(ErrMalformedCookie, "invalid value of cookie %q", r.Name)
	case r.Domain == "" || strings.ContainsFunc(r.Domain, isControl):
		return errors.Wrapf(ErrMalformedCookie, "invalid domain of cookie %q", r.Name)
	case !strings.HasPrefix(r.Path, "/") || strings.ContainsFunc(r.Path, isControl):
		return errors.Wrapf(ErrMalformedCookie, "invalid path of cookie %q", r.Name)
	}
	return nil
}

func isControl(r rune) bool { return r < 0x20 || r == 0x7F }

type recordKey struct{ name, domain, path string }

func (r *Record) key() recordKey {
	return recordKey{name: r.Name, domain: r.Domain, path: r.Path}
}

func clampExpiry(t int64) int64 {
	return min(max(t, math.MinInt32), math.MaxInt32)
}
