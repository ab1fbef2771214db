package semantic

import (
	"httpjar/application/http"
	"httpjar/application/util/rule"
	"maps"
	"slices"
	"strings"
)

// Headers is a multi-valued field collection.
// Each value holds a single field line as received; list-based fields can be
// split with [Headers.List]. Field names keep their first insertion order.
// The zero value is an empty set of headers.
type Headers struct {
	values map[string][]string
	order  []string
}

// fieldJoiners holds separators for fields which are not combined with ", ".
// Set-Cookie is never combined.
// Reference:
// - https://datatracker.ietf.org/doc/html/rfc6265#section-5.4
// - https://datatracker.ietf.org/doc/html/rfc9110#section-5.3-4
var fieldJoiners = map[string]string{
	"Cookie":     "; ",
	"Set-Cookie": "",
}

// NewHeaders copies initial. Field names are ordered alphabetically.
func NewHeaders(initial map[string][]string) Headers {
	var h Headers
	for _, k := range slices.Sorted(maps.Keys(initial)) {
		key := canonicalName(k)
		h.ensure(key)
		h.values[key] = append(h.values[key], initial[k]...)
	}
	return h
}

// HeadersFrom creates headers from raw fields.
// When combine is false, the last line of a repeated field wins.
func HeadersFrom(fields []http.Field, combine bool) Headers {
	var h Headers
	for _, f := range fields {
		value := strings.TrimFunc(string(f.Value), rule.IsWhitespace)
		if combine {
			h.Add(string(f.Name), value)
		} else {
			h.Set(string(f.Name), value)
		}
	}
	return h
}

// Clone returns a deep copy of h.
func (h Headers) Clone() Headers {
	if h.values == nil {
		return Headers{}
	}
	out := Headers{
		values: make(map[string][]string, len(h.values)),
		order:  append([]string(nil), h.order...),
	}
	for k, v := range h.values {
		out.values[k] = append([]string(nil), v...)
	}
	return out
}

// Keys returns field names in insertion order.
func (h *Headers) Keys() []string {
	return append([]string(nil), h.order...)
}

// ToRawFields converts headers into field lines in insertion order.
func (h *Headers) ToRawFields() []http.Field {
	fields := make([]http.Field, 0, len(h.order))
	for _, k := range h.order {
		values := h.values[k]
		if len(values) == 0 {
			continue
		}

		sep, ok := fieldJoiners[k]
		switch {
		case !ok:
			fields = append(fields, http.NewField(k, strings.Join(values, ", ")))
		case sep == "":
			for _, v := range values {
				fields = append(fields, http.NewField(k, v))
			}
		default:
			fields = append(fields, http.NewField(k, strings.Join(values, sep)))
		}
	}
	return fields
}

// Has reports whether the field exists.
func (h *Headers) Has(key string) bool {
	_, ok := h.values[canonicalName(key)]
	return ok
}

// Get returns the first field line of key.
// For list-based fields, use [Headers.Values] or [Headers.List].
func (h *Headers) Get(key string) (string, bool) {
	v := h.values[canonicalName(key)]
	if len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Values returns every field line of key.
func (h *Headers) Values(key string) ([]string, bool) {
	v, ok := h.values[canonicalName(key)]
	return append([]string(nil), v...), ok
}

// List splits every field line of key into list members.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.1
func (h *Headers) List(key string) []string {
	var members []string
	for _, v := range h.values[canonicalName(key)] {
		members = append(members, splitList(v)...)
	}
	return members
}

// Set replaces every line of key with value.
func (h *Headers) Set(key, value string) {
	key = canonicalName(key)
	h.ensure(key)
	h.values[key] = []string{value}
}

// Add appends value as another line of key.
func (h *Headers) Add(key, value string) {
	key = canonicalName(key)
	h.ensure(key)
	h.values[key] = append(h.values[key], value)
}

func (h *Headers) Del(key string) {
	key = canonicalName(key)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			break
		}
	}
}

// DelPrefix removes every field whose canonical name starts with prefix.
func (h *Headers) DelPrefix(prefix string) {
	prefix = canonicalName(prefix)
	for _, k := range h.Keys() {
		if strings.HasPrefix(k, prefix) {
			h.Del(k)
		}
	}
}

// Len returns the number of distinct field names.
func (h *Headers) Len() int { return len(h.order) }

func (h *Headers) ensure(key string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[key]; !ok {
		h.values[key] = nil
		h.order = append(h.order, key)
	}
}

// canonicalName upper-cases the first letter and every letter after '-',
// lower-casing the rest. Names which are not tokens are kept as they are.
func canonicalName(s string) string {
	if !rule.IsValidToken(s) {
		return s
	}

	b := []byte(s)
	upper := true
	for i, c := range b {
		switch {
		case upper && 'a' <= c && c <= 'z':
			b[i] = c - ('a' - 'A')
		case !upper && 'A' <= c && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
		upper = c == '-'
	}
	return string(b)
}

// splitList splits a comma separated field value into members.
// Commas inside a quoted string do not split, and quotes are removed.
// Empty members are dropped.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.1.2
func splitList(value string) []string {
	members := make([]string, 0)

	start, quoted, escaped := 0, false, false
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case escaped:
			escaped = false
		case quoted && c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			members = appendMember(members, value[start:i])
			start = i + 1
		}
	}

	return appendMember(members, value[start:])
}

func appendMember(members []string, member string) []string {
	member = strings.TrimFunc(member, rule.IsWhitespace)
	member = string(rule.Unquote([]byte(member)))
	if member == "" {
		return members
	}
	return append(members, member)
}
