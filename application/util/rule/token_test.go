package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidToken(t *testing.T) {
	testcases := []struct {
		input    string
		expected bool
	}{
		{input: "Set-Cookie", expected: true},
		{input: "x-b3-traceid", expected: true},
		{input: "!#$%&'*+-.^_`|~", expected: true},
		{input: "Host ", expected: false},
		{input: "a:b", expected: false},
		{input: "a\"b", expected: false},
		{input: "café", expected: false},
		{input: "", expected: false},
	}

	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsValidToken(tc.input))
		})
	}
}

func TestUnquote(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected string
	}{
		{desc: "bare token", input: "gzip", expected: "gzip"},
		{desc: "quoted", input: `"gzip"`, expected: "gzip"},
		{desc: "empty quoted", input: `""`, expected: ""},
		{desc: "opening quote only", input: `"gzip`, expected: `"gzip`},
		{desc: "single quote char", input: `"`, expected: `"`},
		{desc: "escaped quote", input: `"a\"b"`, expected: `a"b`},
		{desc: "escaped backslash", input: `"a\\b"`, expected: `a\b`},
		{desc: "escaped letter", input: `"\a"`, expected: "a"},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, string(Unquote([]byte(tc.input))))
		})
	}
}

func TestIsValidCookieValue(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{desc: "plain", input: "abc123", expected: true},
		{desc: "empty", input: "", expected: true},
		{desc: "quoted", input: `"abc"`, expected: true},
		{desc: "base64 padding", input: "YWJj==", expected: true},
		{desc: "space", input: "a b", expected: false},
		{desc: "comma", input: "a,b", expected: false},
		{desc: "semicolon", input: "a;b", expected: false},
		{desc: "backslash", input: `a\b`, expected: false},
		{desc: "inner quote", input: `a"b`, expected: false},
		{desc: "control", input: "a\x01b", expected: false},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsValidCookieValue(tc.input))
		})
	}
}
