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

// Package transport provides the UDP socket layer the codec and SD
// engine sit on top of: raw-fd unicast sockets with explicit socket
// option control, multicast group membership, and the receive loop
// contract ("a datagram arrives with a sender endpoint").
package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Config is the UDP socket configuration surface.
type Config struct {
	Blocking           bool   `yaml:"blocking"`
	ReceiveBufferSize  int    `yaml:"receive_buffer_size"`
	SendBufferSize     int    `yaml:"send_buffer_size"`
	ReuseAddress       bool   `yaml:"reuse_address"`
	ReusePort          bool   `yaml:"reuse_port"`
	EnableBroadcast    bool   `yaml:"enable_broadcast"`
	MulticastInterface string `yaml:"multicast_interface"`
	MulticastTTL       int    `yaml:"multicast_ttl"`
	MaxMessageSize     int    `yaml:"max_message_size"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return Config{
		Blocking:       true,
		ReuseAddress:   true,
		MulticastTTL:   1,
		MaxMessageSize: 1400,
	}
}

// UDPConn wraps a raw socket fd: unicast send/receive with explicit
// control over the options SOME/IP transports care about.
type UDPConn struct {
	fd int
}

// NewUDPConn opens, configures and binds a UDP socket to address:port.
func NewUDPConn(address net.IP, port int, cfg Config) (*UDPConn, error) {
	domain := unix.AF_INET
	if address.To4() == nil {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return nil, fmt.Errorf("creating UDP socket: %w", err)
	}
	if err := applySockopts(fd, cfg); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.SetNonblock(fd, !cfg.Blocking); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setting socket blocking mode: %w", err)
	}
	sa, err := sockaddr(address, port)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding UDP socket to %s:%d: %w", address, port, err)
	}
	return &UDPConn{fd: fd}, nil
}

func applySockopts(fd int, cfg Config) error {
	if cfg.ReuseAddress {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fmt.Errorf("setting SO_REUSEADDR: %w", err)
		}
	}
	if cfg.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return fmt.Errorf("setting SO_REUSEPORT: %w", err)
		}
	}
	if cfg.EnableBroadcast {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
			return fmt.Errorf("setting SO_BROADCAST: %w", err)
		}
	}
	if cfg.ReceiveBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.ReceiveBufferSize); err != nil {
			return fmt.Errorf("setting SO_RCVBUF: %w", err)
		}
	}
	if cfg.SendBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBufferSize); err != nil {
			return fmt.Errorf("setting SO_SNDBUF: %w", err)
		}
	}
	return nil
}

func sockaddr(address net.IP, port int) (unix.Sockaddr, error) {
	if v4 := address.To4(); v4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = port
		copy(sa.Addr[:], v4)
		return &sa, nil
	}
	v6 := address.To16()
	if v6 == nil {
		return nil, fmt.Errorf("invalid IP address %v", address)
	}
	var sa unix.SockaddrInet6
	sa.Port = port
	copy(sa.Addr[:], v6)
	return &sa, nil
}

// WriteTo sends b to addr.
func (c *UDPConn) WriteTo(b []byte, addr net.IP, port int) (int, error) {
	sa, err := sockaddr(addr, port)
	if err != nil {
		return 0, err
	}
	if err := unix.Sendto(c.fd, b, 0, sa); err != nil {
		return 0, fmt.Errorf("sendto %s:%d: %w", addr, port, err)
	}
	return len(b), nil
}

// ReadFrom reads one datagram into buf, returning the sender address.
func (c *UDPConn) ReadFrom(buf []byte) (int, net.Addr, error) {
	n, from, err := unix.Recvfrom(c.fd, buf, 0)
	if err != nil {
		return 0, nil, err
	}
	return n, sockaddrToNetAddr(from), nil
}

func sockaddrToNetAddr(sa unix.Sockaddr) net.Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	case *unix.SockaddrInet6:
		return &net.UDPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	default:
		return nil
	}
}

// LocalAddr returns the address the socket is bound to, resolving an
// ephemeral port (bind to port 0) to whatever the kernel assigned.
func (c *UDPConn) LocalAddr() (*net.UDPAddr, error) {
	sa, err := unix.Getsockname(c.fd)
	if err != nil {
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	addr, ok := sockaddrToNetAddr(sa).(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unsupported local sockaddr type %T", sa)
	}
	return addr, nil
}

// Close releases the underlying fd.
func (c *UDPConn) Close() error {
	return unix.Close(c.fd)
}

// Fd exposes the raw descriptor, e.g. for multicast group membership
// calls that need it directly.
func (c *UDPConn) Fd() int {
	return c.fd
}
