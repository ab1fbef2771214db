// Package status holds response status codes a client cares about.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15
package status

import "strconv"

type Status struct {
	Code         uint
	ReasonPhrase string
}

var reasons = map[uint]string{
	100: "Continue",
	101: "Switching Protocols",
	103: "Early Hints",

	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",

	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",

	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	410: "Gone",
	413: "Content Too Large",
	429: "Too Many Requests",

	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}

var (
	SwitchingProtocols = known(101)
	OK                 = known(200)
	NoContent          = known(204)
	MovedPermanently   = known(301)
	Found              = known(302)
	SeeOther           = known(303)
	NotModified        = known(304)
	TemporaryRedirect  = known(307)
	PermanentRedirect  = known(308)
	NotFound           = known(404)
)

func known(code uint) Status { return Status{code, reasons[code]} }

// FromCode returns the status with its registered reason phrase.
// ok is false when code is not in the registry; the phrase is then empty.
func FromCode(code uint) (s Status, ok bool) {
	reason, ok := reasons[code]
	return Status{code, reason}, ok
}

// Class returns the first digit of the code.
func (s Status) Class() uint { return s.Code / 100 }

func (s Status) IsInformational() bool { return s.Class() == 1 }

// IsRedirect reports whether the status asks the client to follow the Location field.
// 300 and 304 are not followed automatically.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
func (s Status) IsRedirect() bool {
	switch s.Code {
	case MovedPermanently.Code, Found.Code, SeeOther.Code, TemporaryRedirect.Code, PermanentRedirect.Code:
		return true
	}
	return false
}

// HasNoContent reports whether a response with this status never carries content.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
func (s Status) HasNoContent() bool {
	return s.IsInformational() || s.Code == NoContent.Code || s.Code == NotModified.Code
}

func (s Status) String() string {
	text := strconv.FormatUint(uint64(s.Code), 10)
	if s.ReasonPhrase == "" {
		return text
	}
	return text + " " + s.ReasonPhrase
}
