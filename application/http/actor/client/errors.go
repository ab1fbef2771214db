package client

import "github.com/pkg/errors"

var (
	// ErrInvalidRequest is returned when a request can not be sent as is.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNetwork covers address lookup, dial, timeout and wire failures.
	ErrNetwork = errors.New("network error")
	// ErrInvalidRedirect is returned when a redirect must not be followed.
	ErrInvalidRedirect = errors.New("invalid redirect")
	// ErrTooManyRedirects also matches ErrInvalidRedirect.
	ErrTooManyRedirects = errors.Wrap(ErrInvalidRedirect, "too many redirects")
)

// kindError tags err with one of the errors above.
// errors.Is matches both the kind and the cause.
type kindError struct {
	kind error
	err  error
}

func withKind(kind, err error) error {
	return &kindError{kind: kind, err: err}
}

func (e *kindError) Error() string   { return e.kind.Error() + ": " + e.err.Error() }
func (e *kindError) Unwrap() []error { return []error{e.kind, e.err} }
