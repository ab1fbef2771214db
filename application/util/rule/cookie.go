package rule

// IsCookieOctet reports whether c may appear in an unquoted cookie value.
//
//	cookie-octet = %x21 / %x23-2B / %x2D-3A / %x3C-5B / %x5D-7E
//
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-4.1.1
func IsCookieOctet(c byte) bool {
	switch {
	case c == 0x21:
	case 0x23 <= c && c <= 0x2B:
	case 0x2D <= c && c <= 0x3A:
	case 0x3C <= c && c <= 0x5B:
	case 0x5D <= c && c <= 0x7E:
	default:
		return false
	}
	return true
}

// IsValidCookieValue validates cookie-value. A value wrapped with DQUOTE is allowed.
func IsValidCookieValue(v string) bool {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	for idx := 0; idx < len(v); idx++ {
		if !IsCookieOctet(v[idx]) {
			return false
		}
	}
	return true
}
