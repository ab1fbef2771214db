// Package uri parses, formats and resolves http(s) URI references.
//
// Components are stored unescaped and escaped again when formatted.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986
package uri
