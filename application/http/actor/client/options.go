package client

import (
	"encoding/base64"
	"httpjar/application/http"
	"httpjar/application/http/semantic"
	"httpjar/application/http/transfer"
	"time"
)

type Options struct {
	// Headers are added to every request which does not set them already.
	Headers map[string][]string

	// Cookies enables the jar for sending and receiving cookies.
	Cookies bool
	// CookiesFile is loaded on construction and stored on Close when set.
	CookiesFile string
	// MaxCookies bounds the jar. 0 takes the jar's default.
	MaxCookies int
	// MaxCookiesPerDomain bounds records sharing a domain. 0 disables it.
	MaxCookiesPerDomain int
	// RejectPublicSuffixes drops cookies scoped to a public suffix such as "co.uk".
	RejectPublicSuffixes bool

	// Proxy maps a target scheme ("http", "https") to a proxy URL.
	Proxy map[string]string
	// DNSServer ("host:port") is queried directly instead of the system resolver.
	DNSServer string

	BasicAuth *BasicAuth

	// OriginHeader sets Origin from the request target when it is missing.
	OriginHeader bool
	// UserAgent is sent when the request does not carry one. Empty sends none.
	UserAgent string

	// Timeout limits connect, send and receive of every single hop.
	Timeout time.Duration

	Redirects    bool
	MaxRedirects uint
	// StrictRedirects keeps method and body on 301 and 302.
	// When false, they are turned into GET without body like browsers do.
	StrictRedirects  bool
	RedirectSchemes  []string
	RefererHeader    bool
	RedirectsHistory bool

	// ReceiveBody reads the body into memory. When false, Response.Body is nil.
	ReceiveBody bool
	// UnchunkBody removes transfer codings from the received body.
	UnchunkBody bool
	// DecodeBody removes content codings (gzip, deflate, br, zstd) from the received body.
	DecodeBody bool

	Send    SendOptions
	Receive ReceiveOptions

	ExtraCoders []transfer.Coder
}

type BasicAuth struct {
	User     string
	Password string
}

// Reference: https://datatracker.ietf.org/doc/html/rfc7617#section-2
func (a BasicAuth) header() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(a.User+":"+a.Password))
}

type SendOptions struct {
	Encode http.EncodeOptions
}

type ReceiveOptions struct {
	Decode http.DecodeOptions

	Parse semantic.ParseResponseOptions

	// UseReceivedReasonPhrase uses reason phrase from response.
	// If false, the reason phrase will instead be filled with default value for the status code.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4-9
	UseReceivedReasonPhrase bool
}

func DefaultOptions() Options {
	return Options{
		Cookies:          true,
		MaxCookies:       3000,
		Timeout:          30 * time.Second,
		Redirects:        false,
		MaxRedirects:     10,
		StrictRedirects:  true,
		RedirectSchemes:  []string{"http", "https"},
		RefererHeader:    true,
		RedirectsHistory: true,
		ReceiveBody:      true,
		UnchunkBody:      true,
		DecodeBody:       true,
		Send: SendOptions{
			Encode: http.DefaultEncodeOptions,
		},
		Receive: ReceiveOptions{
			Decode: http.DefaultDecodeOptions,
			Parse: semantic.ParseResponseOptions{
				ParseMessageOptions: semantic.ParseMessageOptions{
					CombineFieldValues: true,
				},
			},
		},
	}
}
