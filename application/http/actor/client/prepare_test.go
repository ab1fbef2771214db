package client

import (
	"httpjar/application/http"
	"httpjar/application/http/cookie"
	"httpjar/application/http/semantic"
	"httpjar/application/util/uri"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareDefaults(t *testing.T) {
	client, _ := newTestClient(DefaultOptions())

	request := &semantic.Request{
		URI: uri.URI{Authority: &uri.Authority{Host: "localhost"}, Path: "/a"},
	}

	got, body, err := client.prepare(request)
	require.NoError(t, err)

	assert.Nil(t, body)
	assert.Nil(t, got.Body)
	assert.Equal(t, semantic.MethodGet, got.Method)
	assert.Equal(t, http.Version{1, 1}, got.Version)
	assert.Equal(t, "http", got.URI.Scheme)

	conn, _ := got.Headers.Get("Connection")
	assert.Equal(t, "close", conn)
	host, _ := got.Headers.Get("Host")
	assert.Equal(t, "localhost", host)

	// Request of the caller is left untouched.
	assert.Equal(t, semantic.Method(""), request.Method)
	assert.Equal(t, 0, request.Headers.Len())
}

func TestPrepareHeaders(t *testing.T) {
	testcases := []struct {
		desc     string
		opts     func(opts *Options)
		request  func(t *testing.T) *semantic.Request
		expected map[string]string
		absent   []string
	}{
		{
			desc: "extra headers merged",
			opts: func(opts *Options) {
				opts.Headers = map[string][]string{"Accept": {"text/html"}, "X-Trace": {"a", "b"}}
			},
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", nil)
			},
			expected: map[string]string{"Accept": "text/html", "X-Trace": "a"},
		},
		{
			desc: "extra headers never override",
			opts: func(opts *Options) {
				opts.Headers = map[string][]string{"Accept": {"text/html"}}
			},
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", nil).WithHeader("Accept", "*/*")
			},
			expected: map[string]string{"Accept": "*/*"},
		},
		{
			desc: "basic auth",
			opts: func(opts *Options) {
				opts.BasicAuth = &BasicAuth{User: "user", Password: "pass"}
			},
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", nil)
			},
			expected: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
		},
		{
			desc: "origin with default port omitted",
			opts: func(opts *Options) { opts.OriginHeader = true },
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "https://localhost:443/", nil)
			},
			expected: map[string]string{"Origin": "https://localhost", "Host": "localhost"},
		},
		{
			desc: "origin not set by default",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", nil)
			},
			absent: []string{"Origin", "User-Agent"},
		},
		{
			desc: "accept encoding left out without decoding",
			opts: func(opts *Options) { opts.DecodeBody = false },
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", nil)
			},
			absent: []string{"Accept-Encoding"},
		},
		{
			desc: "HTTP/1.0 keeps connection header",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", nil).WithVersion(http.Version{1, 0})
			},
			absent: []string{"Connection"},
		},
		{
			desc: "body sets content length",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodPost, "http://localhost/", strings.NewReader("abcd"))
			},
			expected: map[string]string{"Content-Length": "4"},
		},
		{
			desc: "empty body sends no content length",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", strings.NewReader(""))
			},
			absent: []string{"Content-Length"},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			opts := DefaultOptions()
			if tc.opts != nil {
				tc.opts(&opts)
			}
			client, _ := newTestClient(opts)

			got, _, err := client.prepare(tc.request(t))
			require.NoError(t, err)

			for key, expected := range tc.expected {
				v, ok := got.Headers.Get(key)
				assert.True(t, ok, key)
				assert.Equal(t, expected, v, key)
			}
			for _, key := range tc.absent {
				assert.False(t, got.Headers.Has(key), key)
			}
		})
	}
}

func TestPrepareInvalid(t *testing.T) {
	testcases := []struct {
		desc    string
		request func(t *testing.T) *semantic.Request
	}{
		{
			desc: "GET with body",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "http://localhost/", strings.NewReader("x"))
			},
		},
		{
			desc: "HEAD with body",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodHead, "http://localhost/", strings.NewReader("x"))
			},
		},
		{
			desc: "unreadable body",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodPost, "http://localhost/", iotest.ErrReader(errors.New("broken")))
			},
		},
		{
			desc: "empty host",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "/path", nil)
			},
		},
		{
			desc: "unsupported scheme",
			request: func(t *testing.T) *semantic.Request {
				return newRequest(t, semantic.MethodGet, "ftp://localhost/file", nil)
			},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			client, _ := newTestClient(DefaultOptions())

			_, _, err := client.prepare(tc.request(t))
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestPrepareCookies(t *testing.T) {
	client, clk := newTestClient(DefaultOptions())
	now := clk.Now().Unix()

	client.Jar().Add(cookie.Record{
		Name: "fresh", Value: "1", Domain: "localhost", HostOnly: true, Path: "/",
		ExpiryTime: now + 60, Persistent: true, CreationTime: now, LastAccessTime: now,
	})
	client.Jar().Add(cookie.Record{
		Name: "stale", Value: "2", Domain: "localhost", HostOnly: true, Path: "/",
		ExpiryTime: now - 60, Persistent: true, CreationTime: now, LastAccessTime: now,
	})

	got, _, err := client.prepare(newRequest(t, semantic.MethodGet, "http://localhost/", nil))
	require.NoError(t, err)

	values, _ := got.Headers.Values("Cookie")
	assert.Equal(t, []string{"fresh=1"}, values)
	assert.Equal(t, 1, client.Jar().Len())

	t.Run("disabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Cookies = false
		client.opts = opts

		got, _, err := client.prepare(newRequest(t, semantic.MethodGet, "http://localhost/", nil))
		require.NoError(t, err)
		assert.False(t, got.Headers.Has("Cookie"))
	})
}
