package iolib

import "io"

type nopWriteCloser struct{ io.Writer }

// NopWriteCloser returns w with a Close method which does nothing.
func NopWriteCloser(w io.Writer) io.WriteCloser { return nopWriteCloser{w} }

func (nopWriteCloser) Close() error { return nil }

// LimitReader reads at most n bytes from r.
func LimitReader(r io.Reader, n uint) io.Reader { return &LimitedReader{R: r, N: n} }

// LimitedReader is [io.LimitedReader] counting with uint.
type LimitedReader struct {
	R io.Reader
	N uint // bytes left
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.N == 0 {
		return 0, io.EOF
	}
	if uint(len(p)) > l.N {
		p = p[:l.N]
	}
	n, err := l.R.Read(p)
	l.N -= uint(n)
	return n, err
}
