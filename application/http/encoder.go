package http

import (
	"bufio"
	"httpjar/application/util/rule"
	"io"

	"github.com/pkg/errors"
)

type EncodeOptions struct {
	// UseSoleLF terminates lines with a bare LF.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	UseSoleLF bool
}

var DefaultEncodeOptions = EncodeOptions{}

// RequestEncoder writes requests in the HTTP/1.1 message format.
type RequestEncoder struct {
	bw   *bufio.Writer
	term []byte
}

func NewRequestEncoder(w io.Writer, opts EncodeOptions) *RequestEncoder {
	term := rule.CRLF
	if opts.UseSoleLF {
		term = term[1:]
	}
	return &RequestEncoder{bw: bufio.NewWriter(w), term: term}
}

// Encode writes the head of request and then copies its body, if any.
func (re *RequestEncoder) Encode(request Request) error {
	if err := re.writeHead(request.RequestLine, request.Headers); err != nil {
		return err
	}

	if request.Body == nil {
		return nil
	}

	if _, err := re.bw.ReadFrom(request.Body); err != nil {
		return errors.Wrap(err, "writing body")
	}

	return errors.Wrap(re.bw.Flush(), "flushing body")
}

// writeHead writes the request line and field section. bufio keeps the first
// write error, so it is checked once on flush.
func (re *RequestEncoder) writeHead(line RequestLine, fields []Field) error {
	re.bw.WriteString(line.Method)
	re.bw.WriteByte(rule.SP)
	re.bw.WriteString(line.Target)
	re.bw.WriteByte(rule.SP)
	re.bw.Write(line.Version.Text())
	re.bw.Write(re.term)

	for _, f := range fields {
		re.bw.Write(f.Text())
		re.bw.Write(re.term)
	}
	re.bw.Write(re.term)

	return errors.Wrap(re.bw.Flush(), "writing request head")
}
