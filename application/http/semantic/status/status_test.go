package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCode(t *testing.T) {
	s, ok := FromCode(404)
	assert.True(t, ok)
	assert.Equal(t, NotFound, s)
	assert.Equal(t, "404 Not Found", s.String())

	s, ok = FromCode(599)
	assert.False(t, ok)
	assert.Equal(t, Status{Code: 599}, s)
	assert.Equal(t, "599", s.String())
}

func TestClass(t *testing.T) {
	assert.Equal(t, uint(1), SwitchingProtocols.Class())
	assert.Equal(t, uint(3), Found.Class())
	assert.Equal(t, uint(5), Status{Code: 599}.Class())
}

func TestIsRedirect(t *testing.T) {
	testcases := []struct {
		code     uint
		expected bool
	}{
		{301, true},
		{302, true},
		{303, true},
		{307, true},
		{308, true},
		{300, false},
		{304, false},
		{305, false},
		{200, false},
		{404, false},
	}

	for _, tc := range testcases {
		s, _ := FromCode(tc.code)
		assert.Equal(t, tc.expected, s.IsRedirect(), "code %d", tc.code)
	}

	custom := Status{Code: 302, ReasonPhrase: "Moved Temporarily"}
	assert.True(t, custom.IsRedirect())
}

func TestHasNoContent(t *testing.T) {
	testcases := []struct {
		status   Status
		expected bool
	}{
		{status: Status{Code: 100}, expected: true},
		{status: Status{Code: 103}, expected: true},
		{status: NoContent, expected: true},
		{status: NotModified, expected: true},
		{status: OK, expected: false},
		{status: NotFound, expected: false},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.expected, tc.status.HasNoContent(), tc.status.String())
	}
}
