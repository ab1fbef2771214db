package bytesutil

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		limit    int
		expected []string
		err      error
	}{
		{desc: "crlf lines", input: "a\r\nbc\r\n", expected: []string{"a\r", "bc\r"}},
		{desc: "empty line", input: "\n", expected: []string{""}},
		{desc: "limit fits", input: "abc\n", limit: 4, expected: []string{"abc"}},
		{desc: "limit exceeded", input: "abcd\n", limit: 4, err: ErrLineTooLong},
		{desc: "missing lf", input: "abc", err: io.ErrUnexpectedEOF},
		{desc: "empty input", input: "", err: io.ErrUnexpectedEOF},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tc.input))

			for _, expected := range tc.expected {
				line, err := ReadLine(r, tc.limit)
				require.NoError(t, err)
				assert.Equal(t, expected, string(line))
			}

			if tc.err != nil {
				_, err := ReadLine(r, tc.limit)
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestReadLineLongerThanBuffer(t *testing.T) {
	long := strings.Repeat("x", 100)
	r := bufio.NewReaderSize(strings.NewReader(long+"\nrest\n"), 16)

	line, err := ReadLine(r, 0)
	require.NoError(t, err)
	assert.Equal(t, long, string(line))

	line, err = ReadLine(r, 0)
	require.NoError(t, err)
	assert.Equal(t, "rest", string(line))

	t.Run("limited", func(t *testing.T) {
		r := bufio.NewReaderSize(strings.NewReader(long+"\n"), 16)

		_, err := ReadLine(r, 50)
		assert.ErrorIs(t, err, ErrLineTooLong)
	})
}

func TestCutCR(t *testing.T) {
	line, ok := CutCR([]byte("abc\r"))
	assert.True(t, ok)
	assert.Equal(t, "abc", string(line))

	line, ok = CutCR([]byte("abc"))
	assert.False(t, ok)
	assert.Equal(t, "abc", string(line))

	_, ok = CutCR(nil)
	assert.False(t, ok)
}
