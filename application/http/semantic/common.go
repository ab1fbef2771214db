package semantic

import (
	"time"

	"github.com/pkg/errors"
)

// DefaultPort returns the default port of the scheme, or 0 if unknown.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// AllowsBody reports whether a request with this method may carry content.
func (m Method) AllowsBody() bool {
	return m != MethodGet && m != MethodHead
}

// dateLayouts are tried in order. The last one is the Netscape cookie
// format which is still common in Expires attributes.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.7
var dateLayouts = []string{
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon, 02-Jan-2006 15:04:05 MST",
}

// ParseDate parses an HTTP-date in any of the accepted formats into UTC.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errors.Errorf("invalid http date: %q", raw)
}
