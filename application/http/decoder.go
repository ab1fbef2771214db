package http

import (
	"bufio"
	"bytes"
	"httpjar/application/util/rule"
	bytesutil "httpjar/util/bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF accepts a bare LF as line terminator.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// LenientWhitespace turns every whitespace into SP and trims both ends of a line.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-3
	LenientWhitespace bool

	// MaxStartLineLength limits the request or status line. 0 is unlimited.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxStartLineLength uint

	// MaxFieldLineLength limits every field line. 0 is unlimited.
	MaxFieldLineLength uint

	// MaxFields limits the number of field lines. 0 is unlimited.
	MaxFields uint
}

var DefaultDecodeOptions = DecodeOptions{
	MaxStartLineLength: 8 << 10,
	MaxFieldLineLength: 16 << 10,
	MaxFields:          256,
}

var (
	ErrMissingCRBeforeLF  = errors.New("missing CR before LF")
	ErrStartLineTooLong   = errors.New("start line length exceeds limit")
	ErrMalformedStartLine = errors.New("start line is malformed")
	ErrFieldLineTooLong   = errors.New("field line length exceeds limit")
	ErrMalformedFieldLine = errors.New("field line is malformed")
	ErrTooManyFields      = errors.New("number of fields exceeds limit")
)

// headDecoder reads the start line and field section of a message.
type headDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

func (d *headDecoder) readLine(limit uint) ([]byte, error) {
	b, err := bytesutil.ReadLine(d.br, int(limit))
	if err != nil {
		return nil, err
	}

	b, hadCR := bytesutil.CutCR(b)
	if !hadCR && !d.opts.AllowSoleLF {
		return nil, ErrMissingCRBeforeLF
	}

	if d.opts.LenientWhitespace {
		b = bytes.Map(func(r rune) rune {
			if rule.IsWhitespace(r) {
				return rune(rule.SP)
			}
			return r
		}, b)
		return bytes.Trim(b, string(rule.SP)), nil
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-4
	return bytes.ReplaceAll(b, []byte{rule.CR}, []byte{rule.SP}), nil
}

func (d *headDecoder) startLine() ([]byte, error) {
	for {
		b, err := d.readLine(d.opts.MaxStartLineLength)
		if errors.Is(err, bytesutil.ErrLineTooLong) {
			return nil, ErrStartLineTooLong
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading start line")
		}

		// Empty lines preceding the start line are ignored.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
		if len(b) > 0 {
			return b, nil
		}
	}
}

func (d *headDecoder) fields() ([]Field, error) {
	fields := make([]Field, 0)
	for {
		b, err := d.readLine(d.opts.MaxFieldLineLength)
		if errors.Is(err, bytesutil.ErrLineTooLong) {
			return nil, ErrFieldLineTooLong
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading field line")
		}

		if len(b) == 0 {
			return fields, nil
		}

		// obs-fold continues the previous value after a single SP.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.2
		if b[0] == rule.SP || b[0] == rule.HTAB {
			if len(fields) == 0 {
				return nil, errors.Wrap(ErrMalformedFieldLine, "whitespace before first field")
			}
			last := &fields[len(fields)-1]
			last.Value = append(append(last.Value, rule.SP), bytes.Trim(b, string(rule.OWS))...)
			continue
		}

		if d.opts.MaxFields > 0 && uint(len(fields)) >= d.opts.MaxFields {
			return nil, ErrTooManyFields
		}

		field, err := ParseField(b)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedFieldLine, err.Error())
		}
		fields = append(fields, field)
	}
}

type ResponseDecoder struct{ head headDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{headDecoder{br: bufio.NewReader(r), opts: opts}}
}

// Decode reads the head of the next response on the stream.
// Body of res reads whatever follows, so it must be consumed before
// the next call.
func (rd *ResponseDecoder) Decode(res *Response) error {
	line, err := rd.head.startLine()
	if err != nil {
		return err
	}

	res.StatusLine, err = parseStatusLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedStartLine, err.Error())
	}

	if res.Headers, err = rd.head.fields(); err != nil {
		return err
	}

	res.Body = rd.head.br

	return nil
}

func parseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 2 {
		return StatusLine{}, errors.Errorf("status line has %d parts", len(parts))
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, err
	}

	code := parts[1]
	if len(code) != 3 {
		return StatusLine{}, errors.Errorf("status code is not 3 digits: %q", code)
	}
	statusCode, err := strconv.ParseUint(string(code), 10, 16)
	if err != nil {
		return StatusLine{}, errors.Errorf("status code is not a number: %q", code)
	}

	// Reason phrase may be empty and some servers drop the SP before it.
	var reason string
	if len(parts) == 3 {
		reason = string(parts[2])
	}

	return StatusLine{Version: ver, StatusCode: uint(statusCode), ReasonPhrase: reason}, nil
}

type RequestDecoder struct{ head headDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{headDecoder{br: bufio.NewReader(r), opts: opts}}
}

// Decode reads the head of the next request on the stream.
func (rd *RequestDecoder) Decode(req *Request) error {
	line, err := rd.head.startLine()
	if err != nil {
		return err
	}

	req.RequestLine, err = parseRequestLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedStartLine, err.Error())
	}

	if req.Headers, err = rd.head.fields(); err != nil {
		return err
	}

	req.Body = rd.head.br

	return nil
}

func parseRequestLine(line []byte) (RequestLine, error) {
	parts := bytes.Split(line, []byte{rule.SP})
	if len(parts) != 3 {
		return RequestLine{}, errors.Errorf("request line has %d parts", len(parts))
	}

	method, target := string(parts[0]), string(parts[1])
	if !rule.IsValidToken(method) {
		return RequestLine{}, errors.Errorf("method is not a token: %q", method)
	}
	if target == "" {
		return RequestLine{}, errors.New("empty request target")
	}

	ver, err := ParseVersion(parts[2])
	if err != nil {
		return RequestLine{}, err
	}

	return RequestLine{Method: method, Target: target, Version: ver}, nil
}
