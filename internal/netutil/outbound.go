// Package netutil resolves the address a LAN peer can use to reach this host.
package netutil

import (
	"fmt"
	"net"
)

// OutboundIP reports the local IPv4 address the OS would route outbound
// traffic through. Dialing UDP only consults the routing table; no packet
// is sent.
func OutboundIP() (string, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:53")
	if err != nil {
		return "", fmt.Errorf("determine outbound address: %w", err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}
