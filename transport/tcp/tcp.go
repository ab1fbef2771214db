// Package tcp dials stream connections over the operating system's TCP stack.
// Connections are optionally wrapped with TLS and may go through a proxy.
package tcp

import (
	"httpjar/network"
	"httpjar/network/ip"
	"httpjar/transport"
	"strconv"
)

type Addr struct {
	ipAddr ip.Addr
	port   uint16

	// serverName is set when the connection should be secured with TLS.
	serverName string
}

var _ transport.Addr = Addr{}

func NewAddr(ipAddr ip.Addr, port uint16) Addr {
	return Addr{ipAddr: ipAddr, port: port}
}

// WithTLS returns a copy of a that is dialed with TLS, verifying serverName.
func (a Addr) WithTLS(serverName string) Addr {
	a.serverName = serverName
	return a
}

func (a Addr) Port() uint16              { return a.port }
func (a Addr) NetworkAddr() network.Addr { return a.ipAddr }
func (a Addr) Identifier() any           { return a.port }
func (a Addr) ServerName() string        { return a.serverName }
func (a Addr) Secure() bool              { return a.serverName != "" }

func (a Addr) String() string {
	net := a.ipAddr.String()
	if a.ipAddr.Version() == 6 {
		net = "[" + net + "]"
	}

	return net + ":" + strconv.FormatUint(uint64(a.port), 10)
}
