package semantic

import (
	"httpjar/application/http"
	"httpjar/application/http/transfer"
	iolib "httpjar/lib/io"
	"httpjar/lib/pointer"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

var ErrInvalidContentLength = errors.New("invalid content length")

type Message struct {
	Version http.Version

	Headers Headers

	// ContentLength is nil when unknown, or when TransferEncoding is set.
	ContentLength    *uint
	TransferEncoding []transfer.Coding

	// Body can be nil when there is no content.
	Body io.Reader

	Trailers *Headers
}

type ParseMessageOptions struct {
	CombineFieldValues bool
}

func createMessage(
	ver http.Version,
	headers []http.Field,
	body io.Reader,
	opts ParseMessageOptions,
) (msg Message, err error) {
	msg.Version = ver
	msg.Headers = HeadersFrom(headers, opts.CombineFieldValues)
	msg.Body = body

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1
	for _, coding := range msg.Headers.List("Transfer-Encoding") {
		msg.TransferEncoding = append(msg.TransferEncoding, transfer.Coding(coding))
	}

	// Transfer-Encoding overrides Content-Length.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.3
	if len(msg.TransferEncoding) > 0 {
		return msg, nil
	}

	msg.ContentLength, err = extractContentLength(msg.Headers)
	if err != nil {
		return Message{}, err
	}

	if msg.ContentLength != nil && body != nil {
		msg.Body = iolib.LimitReader(msg.Body, *msg.ContentLength)
	}

	return msg, nil
}

// clone copies everything but the body, which is shared.
func (m Message) clone() Message {
	out := m
	out.Headers = m.Headers.Clone()
	out.ContentLength = pointer.Clone(m.ContentLength)
	out.TransferEncoding = append([]transfer.Coding(nil), m.TransferEncoding...)
	if m.Trailers != nil {
		trailers := m.Trailers.Clone()
		out.Trailers = &trailers
	}
	return out
}

// IsChunked reports whether chunked is the final transfer coding.
func (m *Message) IsChunked() bool {
	if len(m.TransferEncoding) == 0 {
		return false
	}
	return m.TransferEncoding[len(m.TransferEncoding)-1] == transfer.CodingChunked
}

// EnsureHeadersSet writes framing fields from ContentLength and TransferEncoding.
func (m *Message) EnsureHeadersSet() {
	if len(m.TransferEncoding) > 0 {
		m.Headers.Del("Content-Length")
		m.Headers.Del("Transfer-Encoding")
		for _, enc := range m.TransferEncoding {
			m.Headers.Add("Transfer-Encoding", string(enc))
		}
		return
	}
	if m.ContentLength != nil {
		m.Headers.Set("Content-Length", strconv.FormatUint(uint64(*m.ContentLength), 10))
	}
}

// extractContentLength parses Content-Length. A list of identical values
// such as "42, 42" is accepted; differing values are not.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-10
func extractContentLength(h Headers) (*uint, error) {
	members := h.List("Content-Length")
	if len(members) == 0 {
		return nil, nil
	}

	for _, m := range members[1:] {
		if m != members[0] {
			return nil, errors.Wrapf(ErrInvalidContentLength, "differing values %q", members)
		}
	}

	for _, c := range members[0] {
		if c < '0' || '9' < c {
			return nil, errors.Wrapf(ErrInvalidContentLength, "%q", members[0])
		}
	}

	l, err := strconv.ParseUint(members[0], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidContentLength, "%q", members[0])
	}

	return pointer.To(uint(l)), nil
}
