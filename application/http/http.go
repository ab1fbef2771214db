package http

import (
	"bytes"
	"httpjar/application/util/rule"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type RequestLine struct {
	Method  string
	Target  string
	Version Version
}

type Request struct {
	RequestLine
	Headers []Field

	// Body can be nil when there is no content.
	Body io.Reader
}

type StatusLine struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
}

type Response struct {
	StatusLine
	Headers []Field

	// Body reads the rest of the stream right after the header section.
	Body io.Reader
}

// Version is [major, minor].
type Version [2]uint

const versionPrefix = "HTTP/"

// ParseVersion parses "HTTP/" DIGIT "." DIGIT.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.3
func ParseVersion(b []byte) (Version, error) {
	rest, ok := bytes.CutPrefix(b, []byte(versionPrefix))
	if !ok {
		return Version{}, errors.Errorf("http version prefix not found: %q", b)
	}

	if len(rest) != 3 || rest[1] != '.' || !rule.IsDigit(rune(rest[0])) || !rule.IsDigit(rune(rest[2])) {
		return Version{}, errors.Errorf("malformed http version: %q", b)
	}

	return Version{uint(rest[0] - '0'), uint(rest[2] - '0')}, nil
}

func (ver Version) Text() []byte {
	b := append(make([]byte, 0, len(versionPrefix)+3), versionPrefix...)
	b = strconv.AppendUint(b, uint64(ver[0]), 10)
	b = append(b, '.')
	return strconv.AppendUint(b, uint64(ver[1]), 10)
}

func (ver Version) String() string { return string(ver.Text()) }

type Field struct{ Name, Value []byte }

// ParseField parses a field line into name and value.
// The name must be a token, so whitespace before the colon is rejected.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1
func ParseField(line []byte) (Field, error) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon separator not found on field line: %q", line)
	}

	if !rule.IsValidToken(string(name)) {
		return Field{}, errors.Errorf("field name is not a token: %q", name)
	}

	return Field{Name: name, Value: bytes.Trim(value, string(rule.OWS))}, nil
}

// NewField creates a field from string name and value.
func NewField(name, value string) Field {
	return Field{Name: []byte(name), Value: []byte(value)}
}

// Text returns the field line without line terminator.
func (f Field) Text() []byte {
	b := make([]byte, 0, len(f.Name)+2+len(f.Value))
	b = append(b, f.Name...)
	b = append(b, ':', rule.SP)
	return append(b, f.Value...)
}
