package transfer

import (
	"bufio"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// ContentCoders returns coders for the content codings a client may advertise.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4.1
func ContentCoders() []Coder {
	return []Coder{
		gzipCoder{coding: CodingGzip},
		deflateCoder{},
		brotliCoder{},
		zstdCoder{},
		identityCoder{},
	}
}

// lazyReader defers construction of a decompressor until the first Read,
// so header errors surface as read errors.
type lazyReader struct {
	init func() (io.Reader, error)
	r    io.Reader
	err  error
}

func (lr *lazyReader) Read(p []byte) (int, error) {
	if lr.r == nil && lr.err == nil {
		lr.r, lr.err = lr.init()
	}
	if lr.err != nil {
		return 0, lr.err
	}
	return lr.r.Read(p)
}

// chainCloser closes the coding writer first, then the writer below.
type chainCloser struct {
	io.WriteCloser
	next io.Closer
}

func (c chainCloser) Close() error {
	if err := c.WriteCloser.Close(); err != nil {
		return err
	}
	return c.next.Close()
}

type gzipCoder struct{ coding Coding }

func (c gzipCoder) Coding() Coding { return c.coding }

func (gzipCoder) NewReader(r io.Reader) io.Reader {
	return &lazyReader{init: func() (io.Reader, error) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading gzip header")
		}
		return zr, nil
	}}
}

func (gzipCoder) NewWriter(w io.WriteCloser) io.WriteCloser {
	return chainCloser{WriteCloser: gzip.NewWriter(w), next: w}
}

// deflateCoder reads the zlib format, falling back to raw deflate which
// some servers send instead.
type deflateCoder struct{}

func (deflateCoder) Coding() Coding { return CodingDeflate }

func (deflateCoder) NewReader(r io.Reader) io.Reader {
	return &lazyReader{init: func() (io.Reader, error) {
		br := bufio.NewReader(r)
		head, err := br.Peek(2)
		if err != nil && len(head) < 2 {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrap(err, "peeking deflate header")
		}

		if isZlibHeader(head) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, errors.Wrap(err, "reading zlib header")
			}
			return zr, nil
		}

		return flate.NewReader(br), nil
	}}
}

func (deflateCoder) NewWriter(w io.WriteCloser) io.WriteCloser {
	return chainCloser{WriteCloser: zlib.NewWriter(w), next: w}
}

// Reference: https://datatracker.ietf.org/doc/html/rfc1950#section-2.2
func isZlibHeader(b []byte) bool {
	cmf, flg := b[0], b[1]
	return cmf&0x0F == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

type brotliCoder struct{}

func (brotliCoder) Coding() Coding { return CodingBrotli }

func (brotliCoder) NewReader(r io.Reader) io.Reader {
	return brotli.NewReader(r)
}

func (brotliCoder) NewWriter(w io.WriteCloser) io.WriteCloser {
	return chainCloser{WriteCloser: brotli.NewWriter(w), next: w}
}

type zstdCoder struct{}

func (zstdCoder) Coding() Coding { return CodingZstd }

func (zstdCoder) NewReader(r io.Reader) io.Reader {
	return &lazyReader{init: func() (io.Reader, error) {
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrap(err, "creating zstd decoder")
		}
		return &zstdReader{Decoder: zr}, nil
	}}
}

func (zstdCoder) NewWriter(w io.WriteCloser) io.WriteCloser {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		// Only invalid options fail here.
		panic(err)
	}
	return chainCloser{WriteCloser: zw, next: w}
}

// zstdReader releases decoder resources once the stream ends.
type zstdReader struct {
	*zstd.Decoder
	done bool
}

func (zr *zstdReader) Read(p []byte) (int, error) {
	if zr.done {
		return 0, io.EOF
	}
	n, err := zr.Decoder.Read(p)
	if err == io.EOF {
		zr.done = true
		zr.Decoder.Close()
	}
	return n, err
}

type identityCoder struct{}

func (identityCoder) Coding() Coding { return CodingIdentity }

func (identityCoder) NewReader(r io.Reader) io.Reader { return r }

func (identityCoder) NewWriter(w io.WriteCloser) io.WriteCloser { return w }
