package serialline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakePort is an in-memory Port.
type fakePort struct {
	in     []byte
	out    []byte
	baud   int
	rts    bool
	dtr    bool
	cts    bool
	closed bool

	ctsErr error
}

var _ Port = (*fakePort)(nil)

func newFakePort() *fakePort {
	return &fakePort{baud: DefaultBaudRate, cts: true}
}

func (p *fakePort) Buffered() (int, error) { return len(p.in), nil }

func (p *fakePort) Read(b []byte) (int, error) {
	if p.closed {
		return 0, errors.New("closed")
	}
	n := copy(b, p.in)
	p.in = p.in[n:]

	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.out = append(p.out, b...)
	return len(b), nil
}

func (p *fakePort) SetBaudRate(baud int) error { p.baud = baud; return nil }
func (p *fakePort) SetRTS(on bool) error       { p.rts = on; return nil }
func (p *fakePort) SetDTR(on bool) error       { p.dtr = on; return nil }
func (p *fakePort) CTS() (bool, error)         { return p.cts, p.ctsErr }
func (p *fakePort) Close() error               { p.closed = true; return nil }

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAdapter(t *testing.T, mode string, opts ...Option) (*Adapter, *fakePort, *fakeClock) {
	t.Helper()

	port := newFakePort()
	clock := newFakeClock()

	a, err := NewAdapter(mode, append([]Option{WithPort(port), WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)

	return a, port, clock
}

// feed makes b readable and reads once per byte, collecting the tokens.
func feed(a *Adapter, port *fakePort, b ...byte) []string {
	var tokens []string
	for _, v := range b {
		port.in = append(port.in, v)
		if token, ok := a.Read(); ok {
			tokens = append(tokens, token)
		}
	}

	return append(tokens, drain(a)...)
}

// drain returns every pending token.
func drain(a *Adapter) []string {
	var tokens []string
	for {
		token, ok := a.Read()
		if !ok {
			return tokens
		}
		tokens = append(tokens, token)
	}
}

// flush runs Idle until the transmit queue is empty or the line stays squelched.
func flush(a *Adapter) {
	for i := 0; i < 256 && !a.tx.IsEmpty(); i++ {
		a.Idle()
	}
}
