package itelex

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-telex/directory"
	"github.com/stretchr/testify/require"
)

const testWait = 2 * time.Second

// staticResolver resolves from a fixed map.
type staticResolver map[string]*directory.Entry

func (r staticResolver) Resolve(_ context.Context, number string) (*directory.Entry, bool) {
	e, ok := r[number]
	return e, ok
}

// newTestClient creates a client with a short session timeout. It is closed on cleanup.
func newTestClient(t *testing.T, r Resolver, opts ...ClientOption) *Client {
	t.Helper()

	defaults := []ClientOption{
		WithResolver(r),
		WithSessionTimeout(50 * time.Millisecond),
		WithConnectTimeout(time.Second),
	}

	c, err := NewClient(append(defaults, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(testWait) })

	return c
}

// testPeer is a remote i-Telex station listening on the loopback interface.
type testPeer struct {
	ln *net.TCPListener
}

func newTestPeer(t *testing.T) *testPeer {
	t.Helper()

	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	return &testPeer{ln: ln}
}

func (p *testPeer) entry(number string, mode directory.Mode, extension string) *directory.Entry {
	return &directory.Entry{
		Number:    number,
		Name:      "peer " + number,
		Mode:      mode,
		Extension: extension,
		Host:      "127.0.0.1",
		Port:      p.ln.Addr().(*net.TCPAddr).Port,
	}
}

func (p *testPeer) accept(t *testing.T) net.Conn {
	t.Helper()

	require.NoError(t, p.ln.SetDeadline(time.Now().Add(testWait)))
	conn, err := p.ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// readPeerPacket reads the next packet the client sent.
func readPeerPacket(t *testing.T, conn net.Conn) *Packet {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testWait)))

	var typ [1]byte
	_, err := io.ReadFull(conn, typ[:])
	require.NoError(t, err)

	pkt, err := ReadPacket(conn, typ[0])
	require.NoError(t, err)

	return pkt
}

// waitPeerPacket skips packets until one of type typ arrives.
func waitPeerPacket(t *testing.T, conn net.Conn, typ PacketType) *Packet {
	t.Helper()

	for {
		if pkt := readPeerPacket(t, conn); pkt.Type == typ {
			return pkt
		}
	}
}

// readPeerByte reads the next raw byte the client sent.
func readPeerByte(t *testing.T, conn net.Conn) byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testWait)))

	var b [1]byte
	_, err := io.ReadFull(conn, b[:])
	require.NoError(t, err)

	return b[0]
}

func writePeer(t *testing.T, conn net.Conn, data ...byte) {
	t.Helper()

	_, err := conn.Write(data)
	require.NoError(t, err)
}

// nextToken waits for the next token the client delivers to the poll loop.
func nextToken(t *testing.T, c *Client) string {
	t.Helper()

	deadline := time.Now().Add(testWait)
	for time.Now().Before(deadline) {
		if token, ok := c.Read(); ok {
			return token
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no token received")

	return ""
}

func waitState(t *testing.T, c *Client, want ConnState) {
	t.Helper()

	require.Eventually(t, func() bool { return c.State() == want },
		testWait, 5*time.Millisecond, "state %s, want %s", c.State(), want)
}
