// Package netutil holds small networking helpers for test setups.
package netutil

import (
	"math/rand/v2"
	"net"
	"strconv"
)

// Dynamic (ephemeral) port range per RFC 6335.
const (
	portRangeLo = 49152
	portRangeHi = 65535
)

// FreePort picks a random port in the dynamic range that is currently free.
// The port is probed with a UDP bind, so another process can still grab it
// between the probe and the caller's own bind.
func FreePort() int {
	for {
		port := portRangeLo + rand.IntN(portRangeHi-portRangeLo)
		conn, err := net.ListenPacket("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = conn.Close()
		return port
	}
}
