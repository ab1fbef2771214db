package client

import (
	"bytes"
	"httpjar/application/http/semantic"
	"httpjar/application/http/semantic/status"
	"httpjar/application/util/uri"
	sliceutil "httpjar/lib/slice"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// redirectPolicy decides how the hops of a single Send continue.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
type redirectPolicy struct {
	enabled bool
	max     uint
	strict  bool
	schemes []string
	referer bool

	count uint
}

func newRedirectPolicy(opts Options) *redirectPolicy {
	return &redirectPolicy{
		enabled: opts.Redirects,
		max:     opts.MaxRedirects,
		strict:  opts.StrictRedirects,
		schemes: sliceutil.Map(opts.RedirectSchemes, strings.ToLower),
		referer: opts.RefererHeader,
	}
}

// next returns the request for the following hop, or nil when res is final.
// base is the request before preparation, sent is what was actually written
// and body is the content sent with it.
func (p *redirectPolicy) next(
	base, sent *semantic.Request,
	res *semantic.Response,
	body []byte,
) (*semantic.Request, RedirectEntry, error) {
	if !p.enabled || !res.Status.IsRedirect() {
		return nil, RedirectEntry{}, nil
	}

	location, ok := res.Headers.Get("Location")
	if !ok || location == "" {
		return nil, RedirectEntry{}, nil
	}

	if p.count+1 > p.max {
		return nil, RedirectEntry{}, errors.Wrapf(ErrTooManyRedirects, "limit is %d", p.max)
	}

	resolver, err := uri.NewRefResolver(sent.URI)
	if err != nil {
		return nil, RedirectEntry{}, withKind(ErrInvalidRedirect, errors.Wrap(err, "resolving location"))
	}
	target, err := resolver.ResolveString(location)
	if err != nil {
		return nil, RedirectEntry{}, withKind(ErrInvalidRedirect, errors.Wrap(err, "resolving location"))
	}

	target.Scheme = strings.ToLower(target.Scheme)
	if !slices.Contains(p.schemes, target.Scheme) {
		return nil, RedirectEntry{}, errors.Wrapf(ErrInvalidRedirect, "scheme %q is not allowed", target.Scheme)
	}

	next := base.WithURI(target)
	next.Method = sent.Method
	next.Version = sent.Version

	if p.rewritesToGet(res.Status) {
		next = next.WithBody(nil)
		next.Method = semantic.MethodGet
		next.TransferEncoding = nil
		next.Headers.DelPrefix("Content-")
		next.Headers.Del("Transfer-Encoding")
	} else if len(body) > 0 {
		next = next.WithBody(bytes.NewReader(body))
	}

	if !strings.EqualFold(target.HostPort(), sent.URI.HostPort()) {
		// Credentials are never forwarded to another host.
		next.Headers.Del("Authorization")
	}

	if p.referer {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-10.1.3
		referer := sent.URI.Redacted()
		next.Headers.Set("Referer", referer.String())
	}

	entry := RedirectEntry{
		URI:        sent.URI.Clone(),
		Headers:    sent.Headers.Clone(),
		StatusCode: res.Status.Code,
	}

	p.count++

	return next, entry, nil
}

func (p *redirectPolicy) rewritesToGet(st status.Status) bool {
	switch st.Code {
	case status.SeeOther.Code:
		return true
	case status.MovedPermanently.Code, status.Found.Code:
		return !p.strict
	}
	return false
}
