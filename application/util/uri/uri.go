package uri

import (
	"httpjar/lib/pointer"
	"strconv"
	"strings"
)

// URI is a parsed URI reference. Components hold unescaped text.
type URI struct {
	Scheme    string
	Authority *Authority
	Path      string
	Query     *string
	Fragment  *string
}

type Authority struct {
	UserInfo string
	Host     string // IP literals keep their brackets

	// Port is nil when absent or empty.
	Port *uint16
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
func (u *URI) IsRelativeRef() bool {
	return u.Scheme == ""
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u *URI) String() string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}

	if u.Authority != nil {
		b.WriteString("//")
		if u.Authority.UserInfo != "" {
			b.WriteString(encode(u.Authority.UserInfo, componentUserInfo))
			b.WriteByte('@')
		}
		b.WriteString(u.HostPort())
	}

	b.WriteString(encode(u.Path, componentPath))
	if u.Query != nil {
		b.WriteByte('?')
		b.WriteString(encode(*u.Query, componentQuery))
	}
	if u.Fragment != nil {
		b.WriteByte('#')
		b.WriteString(encode(*u.Fragment, componentQuery))
	}

	return b.String()
}

// Clone returns a deep copy of u.
func (u URI) Clone() URI {
	out := u
	if u.Authority != nil {
		a := *u.Authority
		a.Port = pointer.Clone(u.Authority.Port)
		out.Authority = &a
	}
	out.Query = pointer.Clone(u.Query)
	out.Fragment = pointer.Clone(u.Fragment)
	return out
}

// Host returns the host of u, or empty string if u has no authority.
func (u *URI) Host() string {
	if u.Authority == nil {
		return ""
	}
	return u.Authority.Host
}

// Port returns the explicit port of u, or fallback if it is not set.
func (u *URI) Port(fallback uint16) uint16 {
	if u.Authority == nil {
		return fallback
	}
	return pointer.Deref(u.Authority.Port, fallback)
}

// HostPort formats host and the explicit port as they appear in the authority.
func (u *URI) HostPort() string {
	if u.Authority == nil {
		return ""
	}

	host := u.Authority.Host
	if !strings.HasPrefix(host, "[") {
		host = encode(host, componentRegName)
	}
	if u.Authority.Port == nil {
		return host
	}
	return host + ":" + strconv.FormatUint(uint64(*u.Authority.Port), 10)
}

// RequestTarget returns the origin-form of u.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func (u *URI) RequestTarget() string {
	target := encode(u.Path, componentPath)
	if target == "" {
		target = "/"
	}
	if u.Query != nil {
		target += "?" + encode(*u.Query, componentQuery)
	}
	return target
}

// Redacted returns a copy of u without userinfo and fragment,
// suitable for the Referer header field.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-10.1.3
func (u URI) Redacted() URI {
	out := u.Clone()
	if out.Authority != nil {
		out.Authority.UserInfo = ""
	}
	out.Fragment = nil
	return out
}
