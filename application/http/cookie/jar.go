package cookie

import (
	"httpjar/application/http/semantic"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/spf13/afero"
	"golang.org/x/net/publicsuffix"
)

type Options struct {
	// MaxCookies bounds the number of records. Defaults to 3000.
	MaxCookies int
	// MaxCookiesPerDomain bounds records sharing a domain. 0 disables it.
	MaxCookiesPerDomain int
	// RejectPublicSuffixes rejects Domain attributes which are public suffixes.
	// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.3-2.6
	RejectPublicSuffixes bool

	Clock  clock.Clock
	Logger *slog.Logger
	Fs     afero.Fs
}

func DefaultOptions() Options {
	return Options{
		MaxCookies:           3000,
		MaxCookiesPerDomain:  0,
		RejectPublicSuffixes: false,
		Clock:                clock.New(),
		Logger:               slog.Default(),
		Fs:                   afero.NewOsFs(),
	}
}

// Jar stores cookies in the order they were first received.
// It is safe for concurrent use.
type Jar struct {
	mu      sync.Mutex
	records []*Record
	index   map[recordKey]*Record

	maxCookies          int
	maxCookiesPerDomain int
	rejectPublicSuffix  bool

	clock  clock.Clock
	logger *slog.Logger
	fs     afero.Fs
}

// NewJar creates an empty jar. Zero fields of opts take their default.
func NewJar(opts Options) *Jar {
	defaults := DefaultOptions()
	if opts.MaxCookies <= 0 {
		opts.MaxCookies = defaults.MaxCookies
	}
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	if opts.Fs == nil {
		opts.Fs = defaults.Fs
	}

	return &Jar{
		index:               make(map[recordKey]*Record),
		maxCookies:          opts.MaxCookies,
		maxCookiesPerDomain: max(opts.MaxCookiesPerDomain, 0),
		rejectPublicSuffix:  opts.RejectPublicSuffixes,
		clock:               opts.Clock,
		logger:              opts.Logger,
		fs:                  opts.Fs,
	}
}

func (j *Jar) now() int64 { return j.clock.Now().Unix() }

// ReceiveFromResponse stores every valid Set-Cookie of res, which answered req.
// An invalid cookie is skipped without affecting the others.
func (j *Jar) ReceiveFromResponse(req *semantic.Request, res *semantic.Response) {
	values, ok := res.Headers.Values("Set-Cookie")
	if !ok {
		return
	}

	host := req.URI.Host()
	path := normalizePath(req.URI.Path)

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, v := range values {
		rec, err := ParseSetCookie(v, host, path, now)
		if err != nil {
			j.logger.Debug("Skipping cookie", slog.String("host", host), slog.String("error", err.Error()))
			continue
		}

		if !j.checkPublicSuffix(&rec, host) {
			j.logger.Debug("Rejecting cookie on public suffix",
				slog.String("name", rec.Name), slog.String("domain", rec.Domain))
			continue
		}

		if rec.IsExpired(now) {
			// Server asks to remove the cookie.
			j.remove(rec.key())
			continue
		}

		j.upsert(rec)
	}

	j.clearExcess()
}

// checkPublicSuffix reports whether rec may be stored.
// A domain cookie on a public suffix becomes host-only if the suffix is the host itself.
func (j *Jar) checkPublicSuffix(rec *Record, host string) bool {
	if !j.rejectPublicSuffix || rec.HostOnly {
		return true
	}

	suffix, _ := publicsuffix.PublicSuffix(rec.Domain)
	if suffix != rec.Domain {
		return true
	}

	if strings.EqualFold(rec.Domain, host) {
		rec.HostOnly = true
		return true
	}

	return false
}

// IncludeToRequest returns a copy of req with a Cookie value for every matching record.
// req is not modified.
func (j *Jar) IncludeToRequest(req *semantic.Request) *semantic.Request {
	host := req.URI.Host()
	path := normalizePath(req.URI.Path)
	secure := strings.EqualFold(req.URI.Scheme, "https")

	out := req.Clone()

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, rec := range j.records {
		if !rec.Matches(host, path, secure) {
			continue
		}

		rec.LastAccessTime = now
		out.Headers.Add("Cookie", rec.String())
	}

	return out
}

// Add stores rec, replacing a record with the same name, domain and path.
// The replaced record's creation time is kept.
// A record which cannot be sent or stored is rejected with [ErrMalformedCookie].
func (j *Jar) Add(rec Record) error {
	rec.Domain = strings.ToLower(strings.TrimPrefix(rec.Domain, "."))
	rec.Path = normalizePath(rec.Path)
	rec.ExpiryTime = clampExpiry(rec.ExpiryTime)
	if err := rec.validate(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.upsert(rec)
	return nil
}

// Records returns copies of every record in storage order.
func (j *Jar) Records() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Record, 0, len(j.records))
	for _, rec := range j.records {
		out = append(out, *rec)
	}
	return out
}

func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.records)
}

// ClearExpiredCookies removes persistent records which have expired.
func (j *Jar) ClearExpiredCookies() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.clearExpired()
}

// ClearSessionCookies removes every non-persistent record.
func (j *Jar) ClearSessionCookies() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.filter(func(rec *Record) bool { return rec.Persistent })
}

// ClearExcessCookies removes expired records, then evicts least recently
// accessed records over the per-domain limit and over the global limit.
func (j *Jar) ClearExcessCookies() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.clearExcess()
}

func (j *Jar) ClearAllCookies() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records = nil
	j.index = make(map[recordKey]*Record)
}

// ClearDomainCookies removes records of domain and of its subdomains.
func (j *Jar) ClearDomainCookies(domain string) {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))

	j.mu.Lock()
	defer j.mu.Unlock()

	j.filter(func(rec *Record) bool {
		return !(rec.Domain == domain || strings.HasSuffix(rec.Domain, "."+domain))
	})
}

func (j *Jar) upsert(rec Record) {
	key := rec.key()
	if prev, ok := j.index[key]; ok {
		rec.CreationTime = prev.CreationTime
		*prev = rec
		return
	}

	stored := &rec
	j.records = append(j.records, stored)
	j.index[key] = stored
}

func (j *Jar) remove(key recordKey) {
	if _, ok := j.index[key]; !ok {
		return
	}
	j.filter(func(rec *Record) bool { return rec.key() != key })
}

// filter keeps records for which keep returns true.
func (j *Jar) filter(keep func(rec *Record) bool) {
	kept := j.records[:0]
	for _, rec := range j.records {
		if keep(rec) {
			kept = append(kept, rec)
		} else {
			delete(j.index, rec.key())
		}
	}
	clear(j.records[len(kept):])
	j.records = kept
}

func (j *Jar) clearExpired() {
	now := j.now()
	j.filter(func(rec *Record) bool { return !rec.IsExpired(now) })
}

func (j *Jar) clearExcess() {
	j.clearExpired()

	evicted := make(map[*Record]bool)

	if j.maxCookiesPerDomain > 0 {
		byDomain := make(map[string][]*Record)
		for _, rec := range j.records {
			byDomain[rec.Domain] = append(byDomain[rec.Domain], rec)
		}
		for _, records := range byDomain {
			for _, rec := range leastRecentlyAccessed(records, len(records)-j.maxCookiesPerDomain) {
				evicted[rec] = true
			}
		}
	}

	remaining := make([]*Record, 0, len(j.records))
	for _, rec := range j.records {
		if !evicted[rec] {
			remaining = append(remaining, rec)
		}
	}
	for _, rec := range leastRecentlyAccessed(remaining, len(remaining)-j.maxCookies) {
		evicted[rec] = true
	}

	if len(evicted) == 0 {
		return
	}

	j.logger.Debug("Evicting cookies", slog.Int("count", len(evicted)))
	j.filter(func(rec *Record) bool { return !evicted[rec] })
}

// leastRecentlyAccessed returns n records with the oldest access time.
// Ties are broken by storage order.
func leastRecentlyAccessed(records []*Record, n int) []*Record {
	if n <= 0 {
		return nil
	}

	sorted := make([]*Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].LastAccessTime < sorted[b].LastAccessTime
	})

	return sorted[:n]
}
