package transfer

import (
	"bufio"
	"bytes"
	"httpjar/application/http"
	"httpjar/application/util/rule"
	bytesutil "httpjar/util/bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// maxChunkLineLength bounds a chunk size line with its extensions,
// and every trailer field line.
const maxChunkLineLength = 4096

var ErrMalformedChunk = errors.New("malformed chunk")

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
type chunkedCoder struct{}

var _ Coder = chunkedCoder{}

func NewChunkedCoder() Coder { return chunkedCoder{} }

func (chunkedCoder) Coding() Coding { return CodingChunked }

func (chunkedCoder) NewReader(r io.Reader) io.Reader {
	return &ChunkedReader{br: bufio.NewReader(r)}
}

func (chunkedCoder) NewWriter(w io.WriteCloser) io.WriteCloser {
	return &ChunkedWriter{w: w}
}

// ChunkedReader removes the chunked framing from a stream.
// Chunk extensions are ignored.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1.1-3
type ChunkedReader struct {
	br *bufio.Reader

	remaining uint64 // data left in the current chunk
	inChunk   bool
	done      bool

	onTrailer func(f []http.Field)
}

var _ io.Reader = (*ChunkedReader)(nil)

// SetOnTrailerReceived registers f, which is called once the trailer section is decoded.
func (cr *ChunkedReader) SetOnTrailerReceived(f func(f []http.Field)) {
	cr.onTrailer = f
}

func (cr *ChunkedReader) Read(p []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	if !cr.inChunk {
		size, err := cr.readChunkSize()
		if err != nil {
			return 0, errors.Wrap(err, "reading chunk size")
		}

		if size == 0 {
			if err := cr.readTrailers(); err != nil {
				return 0, errors.Wrap(err, "reading trailer section")
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remaining, cr.inChunk = size, true
	}

	if uint64(len(p)) > cr.remaining {
		p = p[:cr.remaining]
	}

	n, err := cr.br.Read(p)
	cr.remaining -= uint64(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return n, errors.Wrap(err, "reading chunk data")
	}

	if cr.remaining == 0 {
		if err := cr.readDelimiter(); err != nil {
			return n, err
		}
		cr.inChunk = false
	}

	return n, nil
}

func (cr *ChunkedReader) readLine() ([]byte, error) {
	line, err := bytesutil.ReadLine(cr.br, maxChunkLineLength)
	if err != nil {
		return nil, err
	}

	line, ok := bytesutil.CutCR(line)
	if !ok {
		return nil, errors.Wrap(ErrMalformedChunk, "line is not terminated by CRLF")
	}

	return line, nil
}

// readChunkSize reads chunk-size [ chunk-ext ] CRLF.
func (cr *ChunkedReader) readChunkSize() (uint64, error) {
	line, err := cr.readLine()
	if err != nil {
		return 0, err
	}

	text, _, _ := bytes.Cut(line, []byte{';'})
	text = bytes.TrimRight(text, string(rule.OWS)) // BWS

	size, err := strconv.ParseUint(string(text), 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedChunk, "chunk size %q", text)
	}

	return size, nil
}

func (cr *ChunkedReader) readDelimiter() error {
	var delim [2]byte
	if _, err := io.ReadFull(cr.br, delim[:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrap(err, "reading chunk delimiter")
	}

	if delim != [2]byte{rule.CR, rule.LF} {
		return errors.Wrap(ErrMalformedChunk, "chunk data is not followed by CRLF")
	}

	return nil
}

func (cr *ChunkedReader) readTrailers() error {
	var fields []http.Field
	for {
		line, err := cr.readLine()
		if err != nil {
			return err
		}

		if len(line) == 0 {
			break
		}

		field, err := http.ParseField(line)
		if err != nil {
			return errors.Wrap(err, "parsing trailer field")
		}
		fields = append(fields, field)
	}

	if cr.onTrailer != nil {
		cr.onTrailer(fields)
	}

	return nil
}

// ChunkedWriter sends every Write as a single chunk.
// Close writes the last chunk and trailer section. The underlying writer is left open.
type ChunkedWriter struct {
	w io.Writer

	sendTrailers func() []http.Field
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

// SetSendTrailers registers f, which provides trailer fields on [ChunkedWriter.Close].
func (cw *ChunkedWriter) SetSendTrailers(f func() []http.Field) {
	cw.sendTrailers = f
}

func (cw *ChunkedWriter) Write(p []byte) (int, error) {
	// A zero sized chunk would end the body.
	if len(p) == 0 {
		return 0, nil
	}

	buf := make([]byte, 0, len(p)+20)
	buf = strconv.AppendUint(buf, uint64(len(p)), 16)
	buf = append(buf, rule.CRLF...)
	buf = append(buf, p...)
	buf = append(buf, rule.CRLF...)

	if _, err := cw.w.Write(buf); err != nil {
		return 0, errors.Wrap(err, "writing chunk")
	}

	return len(p), nil
}

func (cw *ChunkedWriter) Close() error {
	buf := append([]byte{'0'}, rule.CRLF...)
	if cw.sendTrailers != nil {
		for _, f := range cw.sendTrailers() {
			buf = append(buf, f.Text()...)
			buf = append(buf, rule.CRLF...)
		}
	}
	buf = append(buf, rule.CRLF...)

	_, err := cw.w.Write(buf)
	return errors.Wrap(err, "writing last chunk")
}
