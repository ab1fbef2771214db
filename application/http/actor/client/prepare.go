package client

import (
	"bytes"
	"httpjar/application/http"
	"httpjar/application/http/semantic"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// acceptedContentCodings is advertised when the client decodes bodies.
const acceptedContentCodings = "gzip, deflate, br, zstd"

// prepare returns a copy of request ready to be written, along with its whole body.
// Caller-set headers are never overridden except Connection and Host.
func (c *Client) prepare(request *semantic.Request) (_ *semantic.Request, body []byte, _ error) {
	req := request.Clone()

	for _, key := range slices.Sorted(maps.Keys(c.opts.Headers)) {
		if req.Headers.Has(key) {
			continue
		}
		for _, v := range c.opts.Headers[key] {
			req.Headers.Add(key, v)
		}
	}
	if c.opts.BasicAuth != nil && !req.Headers.Has("Authorization") {
		req.Headers.Set("Authorization", c.opts.BasicAuth.header())
	}
	if c.opts.UserAgent != "" && !req.Headers.Has("User-Agent") {
		req.Headers.Set("User-Agent", c.opts.UserAgent)
	}

	if req.Method == "" {
		req.Method = semantic.MethodGet
	}
	if req.Version == (http.Version{}) {
		req.Version = http.Version{1, 1}
	}

	if req.URI.Scheme == "" {
		req.URI.Scheme = "http"
	}
	req.URI.Scheme = strings.ToLower(req.URI.Scheme)
	if semantic.DefaultPort(req.URI.Scheme) == 0 {
		return nil, nil, errors.Wrapf(ErrInvalidRequest, "unsupported scheme %q", req.URI.Scheme)
	}
	if req.URI.Host() == "" {
		return nil, nil, errors.Wrap(ErrInvalidRequest, "host is empty")
	}

	if c.opts.OriginHeader && !req.Headers.Has("Origin") {
		// Reference: https://datatracker.ietf.org/doc/html/rfc6454#section-6.2
		req.Headers.Set("Origin", req.URI.Scheme+"://"+req.Authority())
	}

	// Connections are never reused.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-9.6
	if req.Version == (http.Version{1, 1}) {
		req.Headers.Set("Connection", "close")
	}

	if c.opts.DecodeBody && !req.Headers.Has("Accept-Encoding") {
		req.Headers.Set("Accept-Encoding", acceptedContentCodings)
	}

	if c.opts.Cookies {
		c.jar.ClearExpiredCookies()
		req = c.jar.IncludeToRequest(req)
	}

	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, nil, withKind(ErrInvalidRequest, errors.Wrap(err, "reading body"))
		}
	}

	if len(body) > 0 {
		if !req.Method.AllowsBody() {
			return nil, nil, errors.Wrapf(ErrInvalidRequest, "%s request can not have a body", req.Method)
		}

		if req.ContentLength == nil && len(req.TransferEncoding) == 0 {
			l := uint(len(body))
			req.ContentLength = &l
		}
		req.Body = bytes.NewReader(body)
	} else {
		req.Body = nil
	}

	req.EnsureHeadersSet()

	return req, body, nil
}
