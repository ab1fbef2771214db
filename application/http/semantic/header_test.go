package semantic

import (
	"httpjar/application/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeaders(t *testing.T) {
	initial := map[string][]string{
		"x-trace":    {"a", "b"},
		"Accept":     {"*/*"},
		"set-COOKIE": {"sid=1"},
	}

	h := NewHeaders(initial)
	initial["Accept"][0] = "changed"

	assert.Equal(t, []string{"Accept", "Set-Cookie", "X-Trace"}, h.Keys())
	accept, _ := h.Get("accept")
	assert.Equal(t, "*/*", accept)
	trace, _ := h.Values("X-TRACE")
	assert.Equal(t, []string{"a", "b"}, trace)
}

func TestHeadersFrom(t *testing.T) {
	fields := []http.Field{
		http.NewField("content-type", "text/plain"),
		http.NewField("Set-Cookie", "a=1; Expires=Wed, 21 Oct 2015 07:28:00 GMT"),
		http.NewField("Set-Cookie", " b=2 "),
	}

	testcases := []struct {
		desc      string
		combine   bool
		setCookie []string
	}{
		{desc: "combined", combine: true, setCookie: []string{"a=1; Expires=Wed, 21 Oct 2015 07:28:00 GMT", "b=2"}},
		{desc: "last wins", combine: false, setCookie: []string{"b=2"}},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			h := HeadersFrom(fields, tc.combine)

			assert.Equal(t, []string{"Content-Type", "Set-Cookie"}, h.Keys())
			got, ok := h.Values("set-cookie")
			require.True(t, ok)
			assert.Equal(t, tc.setCookie, got)
		})
	}
}

func TestHeadersGetSetAddDel(t *testing.T) {
	var h Headers

	_, ok := h.Get("Accept")
	assert.False(t, ok)
	assert.False(t, h.Has("Accept"))

	h.Add("accept", "text/html")
	h.Add("ACCEPT", "*/*")
	v, ok := h.Get("Accept")
	assert.True(t, ok)
	assert.Equal(t, "text/html", v)

	h.Set("Accept", "application/json")
	values, _ := h.Values("Accept")
	assert.Equal(t, []string{"application/json"}, values)

	h.Del("accept")
	assert.False(t, h.Has("Accept"))
	assert.Zero(t, h.Len())

	h.Del("never-set")
}

func TestHeadersValuesIsCopy(t *testing.T) {
	var h Headers
	h.Add("Cookie", "a=1")

	values, _ := h.Values("Cookie")
	values[0] = "changed"

	got, _ := h.Get("Cookie")
	assert.Equal(t, "a=1", got)
}

func TestHeadersKeysOrder(t *testing.T) {
	var h Headers
	h.Set("b", "1")
	h.Set("a", "2")
	h.Set("c", "3")
	h.Del("a")
	h.Set("a", "4")

	assert.Equal(t, []string{"B", "C", "A"}, h.Keys())
}

func TestHeadersDelPrefix(t *testing.T) {
	var h Headers
	h.Set("Content-Type", "text/plain")
	h.Set("Accept", "*/*")
	h.Set("Content-Length", "5")

	h.DelPrefix("content-")

	assert.Equal(t, []string{"Accept"}, h.Keys())
}

func TestHeadersClone(t *testing.T) {
	h := NewHeaders(map[string][]string{"A": {"a"}})

	clone := h.Clone()
	clone.Add("A", "b")
	clone.Set("B", "b")

	v, _ := h.Values("A")
	assert.Equal(t, []string{"a"}, v)
	assert.Equal(t, []string{"A"}, h.Keys())
	assert.Equal(t, []string{"A", "B"}, clone.Keys())
}

func TestHeadersToRawFields(t *testing.T) {
	h := NewHeaders(map[string][]string{"X-Empty": {}})
	h.Add("Set-Cookie", "a=1")
	h.Add("Accept", "text/html")
	h.Add("Set-Cookie", "b=2; Expires=Wed, 21 Oct 2015 07:28:00 GMT")
	h.Add("Cookie", "c=3")
	h.Add("Cookie", "d=4")
	h.Add("Accept", "*/*")

	expected := []string{
		"Set-Cookie: a=1",
		"Set-Cookie: b=2; Expires=Wed, 21 Oct 2015 07:28:00 GMT",
		"Accept: text/html, */*",
		"Cookie: c=3; d=4",
	}

	fields := h.ToRawFields()
	got := make([]string, 0, len(fields))
	for _, f := range fields {
		got = append(got, string(f.Text()))
	}
	assert.Equal(t, expected, got)
}

func TestHeadersList(t *testing.T) {
	var h Headers
	h.Add("Transfer-Encoding", "gzip, chunked")
	h.Add("transfer-encoding", "\"br\"")

	assert.Equal(t, []string{"gzip", "chunked", "br"}, h.List("Transfer-Encoding"))
	assert.Empty(t, h.List("Content-Encoding"))
}

func TestCanonicalName(t *testing.T) {
	testcases := []struct {
		input    string
		expected string
	}{
		{input: "content-type", expected: "Content-Type"},
		{input: "CONTENT-TYPE", expected: "Content-Type"},
		{input: "cOnTeNt-TyPe", expected: "Content-Type"},
		{input: "x-b3-traceid", expected: "X-B3-Traceid"},
		{input: "etag", expected: "Etag"},
		{input: "-leading", expected: "-Leading"},
		{input: "with space", expected: "with space"},
		{input: "", expected: ""},
	}

	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, canonicalName(tc.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected []string
	}{
		{desc: "single", input: "gzip", expected: []string{"gzip"}},
		{desc: "ows around members", input: " gzip ,\tbr ", expected: []string{"gzip", "br"}},
		{desc: "empty members dropped", input: ",, gzip,,br,", expected: []string{"gzip", "br"}},
		{desc: "comma in quotes", input: `"a, b", c`, expected: []string{"a, b", "c"}},
		{desc: "escaped quote", input: `"say \"hi\", ok", x`, expected: []string{`say "hi", ok`, "x"}},
		{desc: "parameters kept", input: "text/html;q=0.9, */*;q=0.1", expected: []string{"text/html;q=0.9", "*/*;q=0.1"}},
		{desc: "empty", input: "", expected: []string{}},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, splitList(tc.input))
		})
	}
}
