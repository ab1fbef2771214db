package cookie

import (
	"httpjar/application/http/semantic"
	"httpjar/application/util/rule"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrMalformedCookie = errors.New("malformed cookie")

// ParseSetCookie parses a Set-Cookie field value received from host for requestPath.
// now is the unix time of receipt, used for Max-Age and timestamps.
// The returned error never includes the cookie value.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.2
func ParseSetCookie(raw, host, requestPath string, now int64) (Record, error) {
	pair, attrs, _ := strings.Cut(raw, ";")

	name, value, found := strings.Cut(pair, "=")
	if !found {
		return Record{}, errors.Wrap(ErrMalformedCookie, "cookie-pair has no '='")
	}

	name = strings.TrimFunc(name, rule.IsWhitespace)
	value = strings.TrimFunc(value, rule.IsWhitespace)

	if !rule.IsValidToken(name) {
		return Record{}, errors.Wrapf(ErrMalformedCookie, "invalid cookie name %q", name)
	}
	if !rule.IsValidCookieValue(value) {
		return Record{}, errors.Wrapf(ErrMalformedCookie, "invalid value of cookie %q", name)
	}

	rec := Record{
		Name:           name,
		Value:          value,
		ExpiryTime:     SessionExpiry,
		CreationTime:   now,
		LastAccessTime: now,
	}

	var (
		maxAge     *int64
		expires    *int64
		domainAttr string
		pathAttr   string
	)

	for _, attr := range strings.Split(attrs, ";") {
		k, v, _ := strings.Cut(attr, "=")
		k = strings.TrimFunc(k, rule.IsWhitespace)
		v = strings.TrimFunc(v, rule.IsWhitespace)

		switch strings.ToLower(k) {
		case "expires":
			if t, err := parseCookieDate(v); err == nil {
				unix := t.Unix()
				expires = &unix
			}
		case "max-age":
			if delta, ok := parseMaxAge(v); ok {
				maxAge = &delta
			}
		case "domain":
			// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.2.3
			if v != "" {
				domainAttr = strings.ToLower(strings.TrimPrefix(v, "."))
			}
		case "path":
			// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.2.4
			if strings.HasPrefix(v, "/") {
				pathAttr = v
			}
		case "secure":
			rec.SecureOnly = true
		case "httponly":
			rec.HTTPOnly = true
		case "samesite":
			rec.SameSite = parseSameSite(v)
		}
	}

	// Max-Age has precedence over Expires.
	// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.3-2.3
	switch {
	case maxAge != nil:
		rec.Persistent = true
		rec.ExpiryTime = clampExpiry(now + *maxAge)
	case expires != nil:
		rec.Persistent = true
		rec.ExpiryTime = clampExpiry(*expires)
	}

	host = strings.ToLower(host)
	if domainAttr != "" {
		if !DomainMatches(domainAttr, host) {
			return Record{}, errors.Wrapf(ErrMalformedCookie,
				"domain %q of cookie %q does not match host %q", domainAttr, name, host)
		}
		rec.Domain = domainAttr
	} else {
		rec.HostOnly = true
		rec.Domain = host
	}

	if rec.Domain == "" {
		return Record{}, errors.Wrapf(ErrMalformedCookie, "cookie %q has no domain", name)
	}

	rec.Path = pathAttr
	if rec.Path == "" {
		rec.Path = DefaultPath(normalizePath(requestPath))
	}

	return rec, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.2.2
func parseMaxAge(v string) (int64, bool) {
	if v == "" {
		return 0, false
	}
	digits := strings.TrimPrefix(v, "-")
	if digits == "" {
		return 0, false
	}
	for idx := 0; idx < len(digits); idx++ {
		if !rule.IsDigit(rune(digits[idx])) {
			return 0, false
		}
	}

	// Saturated so that adding it to a unix time cannot overflow.
	// A ParseInt overflow error returns the int64 bound, which is saturated too.
	delta, _ := strconv.ParseInt(v, 10, 64)
	return min(max(delta, -maxAgeBound), maxAgeBound), true
}

// maxAgeBound is far beyond the expiry clamp while keeping now+delta in int64.
const maxAgeBound = 1 << 40

// parseCookieDate parses Expires attribute as an HTTP date first,
// then falls back to the lenient cookie-date algorithm.
func parseCookieDate(v string) (time.Time, error) {
	if t, err := semantic.ParseDate(v); err == nil {
		return t, nil
	}
	return parseLenientDate(v)
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.1.1
func parseLenientDate(v string) (time.Time, error) {
	var (
		foundTime, foundDay, foundMonth, foundYear bool

		hour, minute, second, day, year int
		month                           time.Month
	)

	for _, token := range strings.FieldsFunc(v, isDateDelimiter) {
		if !foundTime {
			if h, m, s, ok := parseHMS(token); ok {
				hour, minute, second = h, m, s
				foundTime = true
				continue
			}
		}
		if !foundDay {
			if n, ok := leadingDigits(token, 1, 2); ok {
				day = n
				foundDay = true
				continue
			}
		}
		if !foundMonth && len(token) >= 3 {
			if m, ok := months[strings.ToLower(token[:3])]; ok {
				month = m
				foundMonth = true
				continue
			}
		}
		if !foundYear {
			if n, ok := leadingDigits(token, 2, 4); ok {
				year = n
				foundYear = true
				continue
			}
		}
	}

	switch {
	case 70 <= year && year <= 99:
		year += 1900
	case 0 <= year && year <= 69:
		year += 2000
	}

	if !(foundTime && foundDay && foundMonth && foundYear) {
		return time.Time{}, errors.Errorf("incomplete cookie-date %q", v)
	}
	if day < 1 || day > 31 || year < 1601 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, errors.Errorf("cookie-date out of range %q", v)
	}

	t := time.Date(year, month, day, hour, minute, second, 0, time.UTC)
	if t.Day() != day {
		// e.g. 31 Feb.
		return time.Time{}, errors.Errorf("no such day %q", v)
	}

	return t, nil
}

// leadingDigits parses min to max leading digits followed by nothing or a non-digit.
func leadingDigits(token string, minLen, maxLen int) (int, bool) {
	n, idx := 0, 0
	for idx < len(token) && idx < maxLen+1 && rule.IsDigit(rune(token[idx])) {
		n = n*10 + int(token[idx]-'0')
		idx++
	}
	if idx < minLen || idx > maxLen {
		return 0, false
	}
	return n, true
}

// parseHMS parses hms-time = time-field ":" time-field ":" time-field.
func parseHMS(token string) (h, m, s int, ok bool) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 {
		return 0, 0, 0, false
	}

	var fields [3]int
	for idx, part := range parts {
		if idx < 2 {
			if len(part) < 1 || len(part) > 2 {
				return 0, 0, 0, false
			}
			for _, c := range part {
				if !rule.IsDigit(c) {
					return 0, 0, 0, false
				}
			}
		}
		n, ok := leadingDigits(part, 1, 2)
		if !ok {
			return 0, 0, 0, false
		}
		fields[idx] = n
	}

	return fields[0], fields[1], fields[2], true
}

// delimiter = %x09 / %x20-2F / %x3B-40 / %x5B-60 / %x7B-7E
func isDateDelimiter(c rune) bool {
	switch {
	case c == 0x09:
	case 0x20 <= c && c <= 0x2F:
	case 0x3B <= c && c <= 0x40:
	case 0x5B <= c && c <= 0x60:
	case 0x7B <= c && c <= 0x7E:
	default:
		return false
	}
	return true
}
