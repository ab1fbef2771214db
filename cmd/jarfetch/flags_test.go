package main

import (
	"bytes"
	"httpjar/application/http/actor/client"
	"httpjar/application/http/semantic"
	"httpjar/application/http/semantic/status"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// runWith parses args with the jarfetch flags and calls action instead of fetching.
func runWith(t *testing.T, args []string, action func(ctx *cli.Context) error) error {
	t.Helper()

	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.Action = action

	return app.Run(append([]string{"jarfetch"}, args...))
}

func TestOptionsFromFlags(t *testing.T) {
	testcases := []struct {
		desc     string
		args     []string
		expected func(opts *client.Options)
	}{
		{
			desc:     "defaults",
			expected: func(opts *client.Options) { opts.UserAgent = "jarfetch/0.1" },
		},
		{
			desc: "cookies",
			args: []string{"-c", "jar.txt", "--max-cookies", "10", "--max-cookies-per-domain", "2", "--reject-public-suffixes"},
			expected: func(opts *client.Options) {
				opts.UserAgent = "jarfetch/0.1"
				opts.CookiesFile = "jar.txt"
				opts.MaxCookies = 10
				opts.MaxCookiesPerDomain = 2
				opts.RejectPublicSuffixes = true
			},
		},
		{
			desc: "cookies disabled",
			args: []string{"--no-cookies"},
			expected: func(opts *client.Options) {
				opts.UserAgent = "jarfetch/0.1"
				opts.Cookies = false
			},
		},
		{
			desc: "redirects",
			args: []string{"-L", "--max-redirs", "3", "--lenient-redirects", "--redirect-scheme", "https", "--no-referer"},
			expected: func(opts *client.Options) {
				opts.UserAgent = "jarfetch/0.1"
				opts.Redirects = true
				opts.MaxRedirects = 3
				opts.StrictRedirects = false
				opts.RedirectSchemes = []string{"https"}
				opts.RefererHeader = false
			},
		},
		{
			desc: "headers and auth",
			args: []string{"-H", "Accept: text/html", "-H", "X-Trace:a", "-H", "X-Trace: b", "-u", "user:pa:ss", "--origin", "-A", ""},
			expected: func(opts *client.Options) {
				opts.Headers = map[string][]string{"Accept": {"text/html"}, "X-Trace": {"a", "b"}}
				opts.BasicAuth = &client.BasicAuth{User: "user", Password: "pa:ss"}
				opts.OriginHeader = true
			},
		},
		{
			desc: "network",
			args: []string{"-t", "5s", "-x", "HTTPS=socks5://127.0.0.1:1080", "--dns-server", "1.1.1.1:53"},
			expected: func(opts *client.Options) {
				opts.UserAgent = "jarfetch/0.1"
				opts.Timeout = 5 * time.Second
				opts.Proxy = map[string]string{"https": "socks5://127.0.0.1:1080"}
				opts.DNSServer = "1.1.1.1:53"
			},
		},
		{
			desc: "raw body",
			args: []string{"--raw"},
			expected: func(opts *client.Options) {
				opts.UserAgent = "jarfetch/0.1"
				opts.UnchunkBody = false
				opts.DecodeBody = false
			},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			expected := client.DefaultOptions()
			tc.expected(&expected)

			var got client.Options
			err := runWith(t, tc.args, func(ctx *cli.Context) (err error) {
				got, err = optionsFromFlags(ctx)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, expected, got)
		})
	}
}

func TestOptionsFromFlagsEnv(t *testing.T) {
	t.Setenv("JARFETCH_COOKIES_FILE", "env.txt")
	t.Setenv("JARFETCH_FOLLOW_REDIRECTS", "true")

	var got client.Options
	err := runWith(t, nil, func(ctx *cli.Context) (err error) {
		got, err = optionsFromFlags(ctx)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "env.txt", got.CookiesFile)
	assert.True(t, got.Redirects)
}

func TestOptionsFromFlagsInvalid(t *testing.T) {
	testcases := []struct {
		desc string
		args []string
	}{
		{desc: "header without colon", args: []string{"-H", "Accept"}},
		{desc: "header without name", args: []string{"-H", ": value"}},
		{desc: "proxy without scheme", args: []string{"-x", "socks5://127.0.0.1:1080"}},
		{desc: "negative timeout", args: []string{"-t", "-1s"}},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			err := runWith(t, tc.args, func(ctx *cli.Context) error {
				_, err := optionsFromFlags(ctx)
				return err
			})
			assert.ErrorIs(t, err, errUsage)
			assert.Equal(t, 2, exitCode(err))
		})
	}
}

func TestUsageErrors(t *testing.T) {
	testcases := []struct {
		desc   string
		args   []string
		action func(ctx *cli.Context) error
	}{
		{desc: "unknown flag", args: []string{"--bogus", "http://example.com"}, action: func(*cli.Context) error { return nil }},
		{desc: "flag without value", args: []string{"-H"}, action: func(*cli.Context) error { return nil }},
		{desc: "missing url", action: fetch},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			err := runWith(t, tc.args, tc.action)
			assert.ErrorIs(t, err, errUsage)
			assert.Equal(t, 2, exitCode(err))
		})
	}
}

func TestBuildRequest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "body.txt", []byte("from file"), 0o644))

	testcases := []struct {
		desc           string
		args           []string
		url            string
		expectedMethod semantic.Method
		expectedURI    string
		expectedBody   string
	}{
		{desc: "plain get", url: "http://localhost/a", expectedMethod: semantic.MethodGet, expectedURI: "http://localhost/a"},
		{desc: "scheme added", url: "localhost:8080/a", expectedMethod: semantic.MethodGet, expectedURI: "http://localhost:8080/a"},
		{desc: "data implies post", args: []string{"-d", "a=1"}, url: "http://localhost/", expectedMethod: semantic.MethodPost, expectedURI: "http://localhost/", expectedBody: "a=1"},
		{desc: "explicit method", args: []string{"-X", "put", "-d", "a=1"}, url: "http://localhost/", expectedMethod: semantic.MethodPut, expectedURI: "http://localhost/", expectedBody: "a=1"},
		{desc: "data from file", args: []string{"-d", "@body.txt"}, url: "http://localhost/", expectedMethod: semantic.MethodPost, expectedURI: "http://localhost/", expectedBody: "from file"},
		{desc: "head", args: []string{"-I"}, url: "http://localhost/", expectedMethod: semantic.MethodHead, expectedURI: "http://localhost/"},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			var got *semantic.Request
			err := runWith(t, append(tc.args, tc.url), func(ctx *cli.Context) (err error) {
				got, err = buildRequest(ctx, fs, ctx.Args().First())
				return err
			})
			require.NoError(t, err)

			assert.Equal(t, tc.expectedMethod, got.Method)
			assert.Equal(t, tc.expectedURI, got.URI.String())
			if tc.expectedBody == "" {
				assert.Nil(t, got.Body)
			} else {
				b, err := io.ReadAll(got.Body)
				require.NoError(t, err)
				assert.Equal(t, tc.expectedBody, string(b))
			}
		})
	}

	t.Run("missing data file", func(t *testing.T) {
		err := runWith(t, []string{"-d", "@missing.txt", "http://localhost/"}, func(ctx *cli.Context) error {
			_, err := buildRequest(ctx, fs, ctx.Args().First())
			return err
		})
		assert.Error(t, err)
	})
}

func TestWriteResponse(t *testing.T) {
	res := semantic.NewResponse(status.OK, strings.NewReader("hello"))
	res.Headers.Set("Content-Type", "text/plain")
	res.Headers.Add("Set-Cookie", "a=1")
	res.Headers.Add("Set-Cookie", "b=2")

	var buf bytes.Buffer
	require.NoError(t, writeResponse(&buf, res, true))
	assert.Equal(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/plain\r\n"+
		"Set-Cookie: a=1\r\n"+
		"Set-Cookie: b=2\r\n"+
		"\r\n"+
		"hello", buf.String())

	t.Run("body only", func(t *testing.T) {
		res := semantic.NewResponse(status.OK, strings.NewReader("hello"))

		var buf bytes.Buffer
		require.NoError(t, writeResponse(&buf, res, false))
		assert.Equal(t, "hello", buf.String())
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(errors.Wrap(client.ErrInvalidRequest, "x")))
	assert.Equal(t, 2, exitCode(errors.Wrap(errUsage, "x")))
	assert.Equal(t, 3, exitCode(errors.Wrap(client.ErrNetwork, "x")))
	assert.Equal(t, 4, exitCode(client.ErrTooManyRedirects))
	assert.Equal(t, 1, exitCode(errors.New("x")))
}
