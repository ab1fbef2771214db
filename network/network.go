// Package network holds network layer addressing.
package network

// Addr is a network layer address such as an IP address.
type Addr interface {
	// Raw returns the address in network byte order.
	Raw() []byte
	String() string
}
