package ipv4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected Addr
	}{
		{desc: "loopback", input: "127.0.0.1", expected: Addr{127, 0, 0, 1}},
		{desc: "zeros", input: "0.0.0.0", expected: Addr{}},
		{desc: "broadcast", input: "255.255.255.255", expected: Addr{255, 255, 255, 255}},
		{desc: "private", input: "10.20.30.40", expected: Addr{10, 20, 30, 40}},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := ParseAddr(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.input, got.String())
		})
	}
}

func TestParseAddrInvalid(t *testing.T) {
	testcases := []struct {
		desc  string
		input string
	}{
		{desc: "empty", input: ""},
		{desc: "three octets", input: "127.0.0"},
		{desc: "five octets", input: "1.2.3.4.5"},
		{desc: "trailing dot", input: "1.2.3.4."},
		{desc: "empty octet", input: "1..3.4"},
		{desc: "letters", input: "foo.0.0.1"},
		{desc: "out of range", input: "256.0.0.1"},
		{desc: "signed", input: "127.0.0.-1"},
		{desc: "plus sign", input: "+1.0.0.1"},
		{desc: "leading zero", input: "127.0.0.01"},
		{desc: "double zero", input: "127.0.00.1"},
		{desc: "hostname", input: "1.2.3.example"},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := ParseAddr(tc.input)
			assert.ErrorIs(t, err, ErrMalformedAddr)
			assert.Zero(t, got)
		})
	}
}

func TestAddr(t *testing.T) {
	a := Addr{192, 168, 0, 1}
	assert.Equal(t, uint(4), a.Version())
	assert.Equal(t, []byte{192, 168, 0, 1}, a.Raw())

	raw := a.Raw()
	raw[0] = 10
	assert.Equal(t, Addr{192, 168, 0, 1}, a)
}
