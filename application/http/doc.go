// Package http implements the HTTP/1.1 message syntax spoken by the client:
// start lines, field lines and the decoder which turns a byte stream into
// raw messages. Semantics live in the semantic subpackage.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
