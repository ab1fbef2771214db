package transfer

import (
	"httpjar/application/http"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

type Coding string

const (
	CodingChunked  Coding = "chunked"
	CodingGzip     Coding = "gzip"
	CodingXGzip    Coding = "x-gzip"
	CodingDeflate  Coding = "deflate"
	CodingBrotli   Coding = "br"
	CodingZstd     Coding = "zstd"
	CodingIdentity Coding = "identity"
)

// CodingsFrom normalizes raw field list members into codings.
func CodingsFrom(values []string) []Coding {
	codings := make([]Coding, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		codings = append(codings, Coding(v))
	}
	return codings
}

type Coder interface {
	Coding() Coding
	NewReader(r io.Reader) io.Reader
	NewWriter(w io.WriteCloser) io.WriteCloser
}

type CodingPipeliner struct{ coders map[Coding]Coder }

// NewCodingPipeliner returns a pipeliner which knows chunked and every
// supported content coding. customs override the defaults.
func NewCodingPipeliner(customs []Coder) *CodingPipeliner {
	cp := &CodingPipeliner{}
	cp.coders = map[Coding]Coder{
		CodingChunked: NewChunkedCoder(),
	}

	for _, coder := range ContentCoders() {
		cp.coders[coder.Coding()] = coder
	}
	cp.coders[CodingXGzip] = gzipCoder{coding: CodingXGzip}

	for _, coder := range customs {
		cp.coders[coder.Coding()] = coder
	}

	return cp
}

var ErrUnsupportedCoding = errors.New("coding is unsupported")

// Supports reports whether every coding is known.
func (cp *CodingPipeliner) Supports(codings []Coding) bool {
	for _, c := range codings {
		if _, ok := cp.coders[c]; !ok {
			return false
		}
	}
	return true
}

func (cp *CodingPipeliner) coder(c Coding) (Coder, error) {
	coder, ok := cp.coders[c]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedCoding, "%q", c)
	}
	return coder, nil
}

// Decode wraps r to reverse codings, which are listed in the order they were applied.
// onTrailer is called with a non-empty trailer section of a chunked body.
func (cp *CodingPipeliner) Decode(r io.Reader, codings []Coding, onTrailer func(f []http.Field)) (io.Reader, error) {
	for _, c := range slices.Backward(codings) {
		coder, err := cp.coder(c)
		if err != nil {
			return nil, errors.Wrap(err, "decoding")
		}

		r = coder.NewReader(r)
		if cr, ok := r.(*ChunkedReader); ok && onTrailer != nil {
			cr.SetOnTrailerReceived(func(f []http.Field) {
				if len(f) > 0 {
					onTrailer(f)
				}
			})
		}
	}

	return r, nil
}

// Encode wraps w to apply codings in order. Closing the returned writer flushes every layer.
func (cp *CodingPipeliner) Encode(w io.WriteCloser, codings []Coding, sendTrailers func() []http.Field) (io.WriteCloser, error) {
	for _, c := range slices.Backward(codings) {
		coder, err := cp.coder(c)
		if err != nil {
			return nil, errors.Wrap(err, "encoding")
		}

		w = coder.NewWriter(w)
		if cw, ok := w.(*ChunkedWriter); ok && sendTrailers != nil {
			cw.SetSendTrailers(sendTrailers)
		}
	}

	return w, nil
}
