// Package transport defines the byte-stream connections HTTP messages travel over.
// Implementations live in subpackages: tcp for real sockets, memory for tests.
package transport

import "httpjar/network"

// Addr names one end of a connection.
type Addr interface {
	// NetworkAddr returns the network layer address, or nil when there is none.
	NetworkAddr() network.Addr
	// Identifier distinguishes endpoints sharing a network address, such as a port.
	Identifier() any
	String() string
}
