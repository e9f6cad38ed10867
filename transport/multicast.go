/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transport

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// MulticastConn wraps an ipv4.PacketConn joined to an SD multicast
// group, for receiving OfferService/FindService/SubscribeEventgroup
// traffic.
type MulticastConn struct {
	pc *ipv4.PacketConn
}

// NewMulticast opens a UDP socket bound to port, joins group on
// ifaceName (the zero value picks the default interface), and sets
// the configured TTL on outgoing multicast datagrams.
func NewMulticast(group net.IP, port int, ifaceName string, ttl int) (*MulticastConn, error) {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listening for multicast on port %d: %w", port, err)
	}
	pc := ipv4.NewPacketConn(conn)

	var iface *net.Interface
	if ifaceName != "" {
		iface, err = net.InterfaceByName(ifaceName)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("resolving multicast interface %q: %w", ifaceName, err)
		}
	}

	groupAddr := &net.UDPAddr{IP: group, Port: port}
	if err := pc.JoinGroup(iface, groupAddr); err != nil {
		conn.Close()
		return nil, fmt.Errorf("joining multicast group %s: %w", group, err)
	}
	if ttl > 0 {
		if err := pc.SetMulticastTTL(ttl); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting multicast TTL: %w", err)
		}
	}
	return &MulticastConn{pc: pc}, nil
}

// ReadFrom reads one datagram into buf.
func (m *MulticastConn) ReadFrom(buf []byte) (int, net.Addr, error) {
	n, _, addr, err := m.pc.ReadFrom(buf)
	return n, addr, err
}

// WriteTo sends b to the multicast group (or any destination).
func (m *MulticastConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	return m.pc.WriteTo(b, nil, addr)
}

// Close leaves the group and closes the underlying socket.
func (m *MulticastConn) Close() error {
	return m.pc.Close()
}
