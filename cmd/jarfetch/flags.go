package main

import (
	"httpjar/application/http/actor/client"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var flags = []cli.Flag{
	cli.StringFlag{
		Name:   "request, X",
		Usage:  "request method (GET, or POST when --data is given)",
		EnvVar: "JARFETCH_METHOD",
	},
	cli.StringSliceFlag{
		Name:   "header, H",
		Usage:  "extra request header as \"Name: value\", repeatable",
		EnvVar: "JARFETCH_HEADERS",
	},
	cli.StringFlag{
		Name:   "data, d",
		Usage:  "request body, or @path to read it from a file",
		EnvVar: "JARFETCH_DATA",
	},
	cli.StringFlag{
		Name:   "cookies-file, c",
		Usage:  "load cookies from and store them to this file",
		EnvVar: "JARFETCH_COOKIES_FILE",
	},
	cli.BoolFlag{
		Name:   "no-cookies",
		Usage:  "neither send nor receive cookies",
		EnvVar: "JARFETCH_NO_COOKIES",
	},
	cli.IntFlag{
		Name:   "max-cookies",
		Usage:  "maximum number of cookies kept in the jar",
		Value:  client.DefaultOptions().MaxCookies,
		EnvVar: "JARFETCH_MAX_COOKIES",
	},
	cli.IntFlag{
		Name:   "max-cookies-per-domain",
		Usage:  "maximum number of cookies kept for one domain, 0 for no limit",
		EnvVar: "JARFETCH_MAX_COOKIES_PER_DOMAIN",
	},
	cli.BoolFlag{
		Name:   "reject-public-suffixes",
		Usage:  "drop cookies scoped to a public suffix such as co.uk",
		EnvVar: "JARFETCH_REJECT_PUBLIC_SUFFIXES",
	},
	cli.StringFlag{
		Name:   "import-netscape",
		Usage:  "import cookies from a Netscape cookies.txt file",
		EnvVar: "JARFETCH_IMPORT_NETSCAPE",
	},
	cli.StringFlag{
		Name:   "import-firefox",
		Usage:  "import cookies from a Firefox cookies.sqlite database",
		EnvVar: "JARFETCH_IMPORT_FIREFOX",
	},
	cli.BoolFlag{
		Name:   "location, L",
		Usage:  "follow redirects",
		EnvVar: "JARFETCH_FOLLOW_REDIRECTS",
	},
	cli.UintFlag{
		Name:   "max-redirs",
		Usage:  "maximum number of redirects to follow",
		Value:  client.DefaultOptions().MaxRedirects,
		EnvVar: "JARFETCH_MAX_REDIRECTS",
	},
	cli.BoolFlag{
		Name:   "lenient-redirects",
		Usage:  "turn POST into GET on 301 and 302 like browsers do",
		EnvVar: "JARFETCH_LENIENT_REDIRECTS",
	},
	cli.StringSliceFlag{
		Name:   "redirect-scheme",
		Usage:  "scheme allowed as redirect target, repeatable (default: http, https)",
		EnvVar: "JARFETCH_REDIRECT_SCHEMES",
	},
	cli.BoolFlag{
		Name:   "no-referer",
		Usage:  "do not set Referer when following redirects",
		EnvVar: "JARFETCH_NO_REFERER",
	},
	cli.DurationFlag{
		Name:   "timeout, t",
		Usage:  "timeout of every single hop",
		Value:  client.DefaultOptions().Timeout,
		EnvVar: "JARFETCH_TIMEOUT",
	},
	cli.StringSliceFlag{
		Name:   "proxy, x",
		Usage:  "proxy for a target scheme as \"scheme=url\", repeatable",
		EnvVar: "JARFETCH_PROXY",
	},
	cli.StringFlag{
		Name:   "dns-server",
		Usage:  "query this DNS server (host:port) instead of the system resolver",
		EnvVar: "JARFETCH_DNS_SERVER",
	},
	cli.StringFlag{
		Name:   "user, u",
		Usage:  "basic authentication credentials as \"user:password\"",
		EnvVar: "JARFETCH_USER",
	},
	cli.BoolFlag{
		Name:   "origin",
		Usage:  "set Origin from the request target",
		EnvVar: "JARFETCH_ORIGIN",
	},
	cli.StringFlag{
		Name:   "user-agent, A",
		Usage:  "User-Agent header value",
		Value:  "jarfetch/0.1",
		EnvVar: "JARFETCH_USER_AGENT",
	},
	cli.BoolFlag{
		Name:   "raw",
		Usage:  "keep transfer and content codings of the body as received",
		EnvVar: "JARFETCH_RAW",
	},
	cli.BoolFlag{
		Name:   "head, I",
		Usage:  "send HEAD and print the response head only",
		EnvVar: "JARFETCH_HEAD",
	},
	cli.BoolFlag{
		Name:   "include, i",
		Usage:  "print the response head before the body",
		EnvVar: "JARFETCH_INCLUDE",
	},
	cli.BoolFlag{
		Name:   "verbose",
		Usage:  "log hops and cookie handling to stderr",
		EnvVar: "JARFETCH_VERBOSE",
	},
}

// optionsFromFlags maps command line flags onto client options.
// Invalid flag values are reported as [errUsage].
func optionsFromFlags(ctx *cli.Context) (opts client.Options, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(errUsage, err.Error())
		}
	}()

	opts = client.DefaultOptions()

	headers, err := parseHeaders(ctx.StringSlice("header"))
	if err != nil {
		return opts, err
	}
	opts.Headers = headers

	opts.Cookies = !ctx.Bool("no-cookies")
	opts.CookiesFile = ctx.String("cookies-file")
	opts.MaxCookies = ctx.Int("max-cookies")
	opts.MaxCookiesPerDomain = ctx.Int("max-cookies-per-domain")
	opts.RejectPublicSuffixes = ctx.Bool("reject-public-suffixes")

	opts.Redirects = ctx.Bool("location")
	opts.MaxRedirects = ctx.Uint("max-redirs")
	opts.StrictRedirects = !ctx.Bool("lenient-redirects")
	if schemes := ctx.StringSlice("redirect-scheme"); len(schemes) > 0 {
		opts.RedirectSchemes = schemes
	}
	opts.RefererHeader = !ctx.Bool("no-referer")

	opts.Timeout = ctx.Duration("timeout")
	if opts.Timeout < 0 {
		return opts, errors.Errorf("negative timeout %s", opts.Timeout)
	}

	proxies, err := parseProxies(ctx.StringSlice("proxy"))
	if err != nil {
		return opts, err
	}
	opts.Proxy = proxies
	opts.DNSServer = ctx.String("dns-server")

	if user := ctx.String("user"); user != "" {
		name, password, _ := strings.Cut(user, ":")
		opts.BasicAuth = &client.BasicAuth{User: name, Password: password}
	}
	opts.OriginHeader = ctx.Bool("origin")
	opts.UserAgent = ctx.String("user-agent")

	if ctx.Bool("raw") {
		opts.UnchunkBody = false
		opts.DecodeBody = false
	}

	return opts, nil
}

// parseHeaders parses "Name: value" pairs. A name given more than once keeps
// every value in order.
func parseHeaders(raw []string) (map[string][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make(map[string][]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("invalid header %q", h)
		}
		headers[name] = append(headers[name], strings.TrimSpace(value))
	}

	return headers, nil
}

// parseProxies parses "scheme=url" pairs.
func parseProxies(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	proxies := make(map[string]string, len(raw))
	for _, p := range raw {
		scheme, target, ok := strings.Cut(p, "=")
		if !ok || scheme == "" || target == "" {
			return nil, errors.Errorf("invalid proxy %q", p)
		}
		proxies[strings.ToLower(scheme)] = target
	}

	return proxies, nil
}
