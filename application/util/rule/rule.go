// Package rule holds the core ABNF rules shared by the HTTP and cookie grammars.
// Reference: https://datatracker.ietf.org/doc/html/rfc5234#appendix-B.1
package rule

import "slices"

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
)

var (
	CRLF = []byte{CR, LF}
	// OWS is optional whitespace.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.3
	OWS = []byte{SP, HTAB}
	// Whitespaces are tolerated between request line elements.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-3
	Whitespaces = []byte{SP, HTAB, 0x0B, 0x0C, CR}
)

func IsWhitespace(r rune) bool {
	return r >= 0 && r < 0x80 && slices.Contains(Whitespaces, byte(r))
}

func IsAlpha(r rune) bool { return 'a' <= r|0x20 && r|0x20 <= 'z' }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }
