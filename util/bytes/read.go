package bytesutil

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

var ErrLineTooLong = errors.New("line length exceeds limit")

// ReadLine reads from r until LF and returns the line without LF.
// When limit is positive, no more than limit bytes (LF included) are consumed
// before [ErrLineTooLong] is returned.
// EOF before LF results in [io.ErrUnexpectedEOF].
func ReadLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice('\n')
		if limit > 0 && len(line)+len(frag) > limit {
			return nil, ErrLineTooLong
		}
		line = append(line, frag...)

		switch {
		case err == nil:
			return line[:len(line)-1], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return nil, io.ErrUnexpectedEOF
		default:
			return nil, err
		}
	}
}

// CutCR removes a trailing CR from line and reports whether it was there.
func CutCR(line []byte) ([]byte, bool) {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1], true
	}
	return line, false
}
