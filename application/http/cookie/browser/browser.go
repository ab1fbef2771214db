// Package browser imports cookies exported by web browsers into a [cookie.Jar].
// Cookie values are never logged.
package browser

import (
	"httpjar/application/http/cookie"
)

type Format int

const (
	FormatUnknown Format = iota
	// FormatNetscape is the tab separated cookies.txt format.
	FormatNetscape
	// FormatFirefox is the moz_cookies table of cookies.sqlite.
	FormatFirefox
)

func (f Format) String() string {
	switch f {
	case FormatNetscape:
		return "netscape"
	case FormatFirefox:
		return "firefox"
	}
	return "unknown"
}

// Import adds records which are not expired at now to jar.
// Records the jar rejects are skipped. It returns the number of added records.
func Import(jar *cookie.Jar, records []cookie.Record, now int64) int {
	added := 0
	for _, rec := range records {
		if rec.IsExpired(now) {
			continue
		}
		if err := jar.Add(rec); err != nil {
			continue
		}
		added++
	}

	jar.ClearExcessCookies()

	return added
}

// domainOf converts a browser host column into domain and host-only flag.
// A leading dot marks a domain cookie.
func domainOf(host string, includeSubdomains bool) (domain string, hostOnly bool) {
	if len(host) > 0 && host[0] == '.' {
		return host[1:], false
	}
	return host, !includeSubdomains
}
