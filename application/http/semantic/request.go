package semantic

import (
	"httpjar/application/http"
	"httpjar/application/util/uri"
	"io"
	"strconv"
	"strings"
)

// Request is an http request built by an application.
// With* methods never modify the receiver; they return an updated copy
// which shares only the body reader.
type Request struct {
	Message

	Method Method
	URI    uri.URI

	// Host overrides the Host header. It is derived from URI when empty.
	Host string
}

// NewRequest creates an HTTP/1.1 request for u. body can be nil.
func NewRequest(method Method, u uri.URI, body io.Reader) *Request {
	return &Request{
		Message: Message{
			Version: http.Version{1, 1},
			Body:    body,
		},
		Method: method,
		URI:    u.Clone(),
	}
}

// Clone returns a deep copy of r. The body reader is shared.
func (r *Request) Clone() *Request {
	out := *r
	out.Message = r.Message.clone()
	out.URI = r.URI.Clone()
	return &out
}

func (r *Request) WithVersion(ver http.Version) *Request {
	out := r.Clone()
	out.Version = ver
	return out
}

// WithURI replaces the target. Host is derived again from u.
func (r *Request) WithURI(u uri.URI) *Request {
	out := r.Clone()
	out.URI = u.Clone()
	out.Host = ""
	return out
}

// WithHeader replaces every value of key.
func (r *Request) WithHeader(key string, values ...string) *Request {
	out := r.Clone()
	out.Headers.Del(key)
	for _, v := range values {
		out.Headers.Add(key, v)
	}
	return out
}

// WithBody replaces the body and forgets any known content length.
func (r *Request) WithBody(body io.Reader) *Request {
	out := r.Clone()
	out.Body = body
	out.ContentLength = nil
	out.Headers.Del("Content-Length")
	return out
}

// Authority returns the Host header value: the host of the URI,
// followed by the port when it is not the default of the scheme.
func (r *Request) Authority() string {
	if r.Host != "" {
		return r.Host
	}

	host := r.URI.HostPort()
	if r.URI.Authority == nil || r.URI.Authority.Port == nil {
		return host
	}

	port := *r.URI.Authority.Port
	if port == DefaultPort(r.URI.Scheme) {
		return strings.TrimSuffix(host, ":"+strconv.FormatUint(uint64(port), 10))
	}
	return host
}

func (r *Request) EnsureHeadersSet() {
	r.Message.EnsureHeadersSet()

	r.Headers.Set("Host", r.Authority())
}

// RawRequest converts r into a wire request with origin-form target.
func (r *Request) RawRequest() http.Request {
	return http.Request{
		RequestLine: http.RequestLine{
			Method:  string(r.Method),
			Target:  r.URI.RequestTarget(),
			Version: r.Version,
		},
		Headers: r.Headers.ToRawFields(),
		Body:    r.Body,
	}
}
