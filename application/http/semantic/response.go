package semantic

import (
	"httpjar/application/http"
	"httpjar/application/http/semantic/status"
	"io"
	"time"
)

type Response struct {
	Message

	Status status.Status

	// Date is zero when the field is absent or unparsable.
	Date time.Time
}

// NewResponse creates an HTTP/1.1 response. body can be nil.
func NewResponse(st status.Status, body io.Reader) *Response {
	return &Response{
		Message: Message{
			Version: http.Version{1, 1},
			Body:    body,
		},
		Status: st,
	}
}

type ParseResponseOptions struct {
	ParseMessageOptions
}

func ResponseFrom(raw *http.Response, opts ParseResponseOptions) (*Response, error) {
	response := Response{
		Status: status.Status{Code: raw.StatusCode, ReasonPhrase: raw.ReasonPhrase},
	}

	var err error
	response.Message, err = createMessage(raw.Version, raw.Headers, raw.Body, opts.ParseMessageOptions)
	if err != nil {
		return nil, err
	}

	response.Date = extractDate(response.Headers)

	return &response, nil
}

// Invalid dates are ignored.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.6.1-8
func extractDate(h Headers) time.Time {
	v, ok := h.Get("Date")
	if !ok {
		return time.Time{}
	}

	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}
	}
	return t
}
