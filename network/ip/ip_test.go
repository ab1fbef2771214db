package ip

import (
	ipv4 "httpjar/network/ip/v4"
	ipv6 "httpjar/network/ip/v6"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected Addr
		wantErr  bool
	}{
		{desc: "ipv4", input: "192.168.0.1", expected: ipv4.Addr{192, 168, 0, 1}},
		{desc: "ipv6", input: "::1", expected: ipv6.Addr{15: 1}},
		{desc: "bracketed ipv6", input: "[::1]", expected: ipv6.Addr{15: 1}},
		{desc: "unclosed bracket", input: "[::1", wantErr: true},
		{desc: "bracketed ipv4", input: "[127.0.0.1]", wantErr: true},
		{desc: "domain", input: "example.com", wantErr: true},
		{desc: "numeric domain", input: "1.2.3.example", wantErr: true},
		{desc: "empty", input: "", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			addr, err := ParseLiteral(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrNotIPLiteral)
				assert.False(t, IsLiteral(tc.input))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, addr)
			assert.True(t, IsLiteral(tc.input))
		})
	}
}

func TestFromBytes(t *testing.T) {
	addr, err := FromBytes([]byte{10, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, ipv4.Addr{10, 0, 0, 1}, addr)

	mapped := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xFF, 0xFF, 10, 0, 0, 2}
	addr, err = FromBytes(mapped)
	require.NoError(t, err)
	assert.Equal(t, ipv4.Addr{10, 0, 0, 2}, addr)

	_, err = FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}
