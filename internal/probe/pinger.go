package probe

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const echoPayloadSize = 32

// IANA protocol number for ICMP over IPv4.
const protocolICMP = 1

// echoSession wraps one ICMP socket used for a single probe cycle, mirroring
// the one-handle-per-cycle lifetime of the underlying OS echo facilities.
// Opening the socket needs elevated privileges on most systems; when it
// fails, the whole cycle falls back to TCP handshake timing.
type echoSession struct {
	conn *icmp.PacketConn
	id   int
}

// newEchoSession opens a raw ICMPv4 socket.
func newEchoSession() (*echoSession, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("icmp listen: %w", err)
	}
	return &echoSession{
		conn: conn,
		id:   os.Getpid() & 0xffff,
	}, nil
}

// probe sends one echo request and waits for the matching reply.
// Returns the round-trip time and whether the probe succeeded. Mismatched
// replies (other pingers, stale packets) are skipped until the deadline.
func (s *echoSession) probe(dst netip.Addr, seq int, timeout time.Duration) (time.Duration, bool) {
	payload := make([]byte, echoPayloadSize)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{
			ID:   s.id,
			Seq:  seq,
			Data: payload,
		},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return 0, false
	}

	deadline := time.Now().Add(timeout)
	if err := s.conn.SetDeadline(deadline); err != nil {
		return 0, false
	}

	start := time.Now()
	if _, err := s.conn.WriteTo(wire, &net.IPAddr{IP: dst.AsSlice()}); err != nil {
		return 0, false
	}

	buf := make([]byte, 1500)
	for time.Now().Before(deadline) {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			return 0, false
		}
		reply, err := icmp.ParseMessage(protocolICMP, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || echo.ID != s.id || echo.Seq != seq {
			continue
		}
		return time.Since(start), true
	}
	return 0, false
}

// Close releases the ICMP socket.
func (s *echoSession) Close() error {
	return s.conn.Close()
}

// handshakeProbe measures the wall-clock time to establish and immediately
// tear down a TCP connection. It substitutes for echo probing when ICMP is
// blocked: the three-way handshake gives a comparable round-trip figure.
func handshakeProbe(dst netip.Addr, port int, timeout time.Duration) (time.Duration, bool) {
	addr := net.JoinHostPort(dst.String(), strconv.Itoa(port))

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	rtt := time.Since(start)
	if err != nil {
		return 0, false
	}
	conn.Close()
	return rtt, true
}

// resolveIPv4 turns the configured probe target into an IPv4 address:
// literal addresses parse directly, hostnames resolve through the system
// resolver (bounded by timeout) with the first IPv4 answer winning.
func resolveIPv4(target string, timeout time.Duration) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(target); err == nil {
		if !addr.Is4() {
			return netip.Addr{}, fmt.Errorf("probe target %q is not IPv4", target)
		}
		return addr, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", target)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve %q: %w", target, err)
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			addr, _ := netip.AddrFromSlice(ip4)
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("resolve %q: no IPv4 answer", target)
}
