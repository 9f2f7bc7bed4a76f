package serialline

import (
	"errors"
	"testing"
	"time"

	"github.com/arloliu/go-telex/logger"
	"github.com/arloliu/go-telex/telex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdapter_InitialState(t *testing.T) {
	a, port, _ := newTestAdapter(t, "TW39")

	assert.False(t, a.IsEnabled())
	assert.False(t, a.IsOnline())
	assert.False(t, port.rts)
	assert.False(t, port.dtr)
	assert.True(t, a.Flags().Loopback)

	_, ok := a.Read()
	assert.False(t, ok)
}

func TestAdapter_LoopbackOverride(t *testing.T) {
	a, _, _ := newTestAdapter(t, "TW39", WithLoopback(false))
	assert.False(t, a.Flags().Loopback)
	assert.True(t, a.Flags().PulseDial)
}

func TestAdapter_DedicatedLineDecodes(t *testing.T) {
	a, port, _ := newTestAdapter(t, "")

	assert.Equal(t, []string{"E", "A"}, feed(a, port, 0x01, 0x03))
	assert.Empty(t, port.in)
}

func TestAdapter_WriteAndIdle(t *testing.T) {
	a, port, _ := newTestAdapter(t, "")

	a.Write("A", telex.SourceITelexClient)
	assert.Empty(t, port.out, "nothing is sent before Idle")

	a.Idle()
	assert.Equal(t, []byte{0x1F, 0x03}, port.out)

	// WRU request
	port.out = nil
	a.Write(telex.CharWRUText, telex.SourceITelexClient)
	a.Idle()
	assert.Equal(t, []byte{0x1B, 0x09}, port.out)

	a.Idle()
	assert.Equal(t, []byte{0x1B, 0x09}, port.out, "empty queue sends nothing")
}

func TestAdapter_USCoding(t *testing.T) {
	a, port, _ := newTestAdapter(t, "", WithUSCoding(true))

	a.Write("$", telex.SourceITelexClient)
	a.Idle()
	assert.Equal(t, []byte{0x1B, 0x09}, port.out)
}

func TestAdapter_LocalEcho(t *testing.T) {
	a, port, _ := newTestAdapter(t, "", WithLocalEcho(true))

	assert.Equal(t, []string{"A"}, feed(a, port, 0x03))

	flush(a)
	assert.Equal(t, []byte{0x1F, 0x03}, port.out)
}

func TestAdapter_AnswerAndHangUpDriveLines(t *testing.T) {
	a, port, _ := newTestAdapter(t, "")

	a.Write(telex.CmdAnswer, telex.SourceITelexClient)
	assert.True(t, a.IsOnline())
	assert.True(t, a.IsEnabled())
	assert.True(t, port.rts)
	assert.True(t, port.dtr)

	a.Write(telex.CmdHangUp, telex.SourceITelexClient)
	assert.False(t, a.IsOnline())
	assert.False(t, a.IsEnabled())
	assert.False(t, port.rts)
	assert.False(t, port.dtr)
}

func TestAdapter_ReadyToDialWithoutPulseDialing(t *testing.T) {
	a, port, _ := newTestAdapter(t, "V.10")

	a.Write(telex.CmdReadyToDial, telex.SourceITelexClient)
	assert.True(t, a.IsOnline())
	assert.True(t, a.IsEnabled())
	assert.Empty(t, port.out)
	assert.Equal(t, DefaultBaudRate, port.baud)
}

func TestAdapter_PulseDialing(t *testing.T) {
	a, port, clock := newTestAdapter(t, "TW39")

	a.Write(telex.CmdReadyToDial, telex.SourceSerialLine)
	assert.True(t, a.IsOnline())
	assert.False(t, a.IsEnabled(), "pulses are only decoded while not enabled")
	assert.Equal(t, 75, port.baud)
	assert.Equal(t, []byte{0x01}, port.out)

	// past the enable squelch
	clock.Advance(600 * time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.Empty(t, feed(a, port, 0x10))
		clock.Advance(60 * time.Millisecond)
	}

	a.Idle20Hz()
	assert.Empty(t, drain(a), "digit is not finished within 500ms")

	clock.Advance(450 * time.Millisecond)
	a.Idle20Hz()
	assert.Equal(t, []string{"3"}, drain(a))

	// ten pulses dial 0; idle bytes and non pulses are ignored
	for _, b := range []byte{0x10, 0x00, 0x30, 0x1C, 0x03, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x01} {
		assert.Empty(t, feed(a, port, b))
		clock.Advance(50 * time.Millisecond)
	}
	clock.Advance(500 * time.Millisecond)
	a.Idle20Hz()
	assert.Equal(t, []string{"0"}, drain(a))

	a.Write(telex.CmdAnswer, telex.SourceITelexClient)
	assert.Equal(t, DefaultBaudRate, port.baud, "answer cancels the pulse dialing baud rate")
	assert.True(t, a.IsEnabled())
}

func TestAdapter_HangUpSquelch(t *testing.T) {
	a, port, clock := newTestAdapter(t, "TW39")
	clock.Advance(time.Second)

	a.Write(telex.CmdHangUp, telex.SourceITelexClient)

	clock.Advance(1400 * time.Millisecond)
	assert.Empty(t, feed(a, port, 0x10))
	assert.Empty(t, port.in, "squelched bytes are consumed")

	clock.Advance(200 * time.Millisecond)
	assert.Empty(t, feed(a, port, 0x10))

	clock.Advance(600 * time.Millisecond)
	a.Idle20Hz()
	assert.Equal(t, []string{"1"}, drain(a), "only the pulse after the squelch counts")
}

func TestAdapter_SquelchOnlyExtends(t *testing.T) {
	a, port, clock := newTestAdapter(t, "TW39")
	clock.Advance(time.Second)

	a.Write(telex.CmdHangUp, telex.SourceITelexClient)
	clock.Advance(200 * time.Millisecond)
	// would end the squelch 0.5s from now
	a.Write(telex.CmdAnswer, telex.SourceITelexClient)

	a.Write("A", telex.SourceITelexClient)
	clock.Advance(800 * time.Millisecond)
	a.Idle()
	assert.Empty(t, port.out, "transmission waits for the squelch")

	clock.Advance(600 * time.Millisecond)
	a.Idle()
	assert.Equal(t, []byte{0x1F, 0x03}, port.out)
}

func TestAdapter_SquelchEndsAtDeadline(t *testing.T) {
	a, port, clock := newTestAdapter(t, "TW39")
	clock.Advance(time.Second)

	a.Write(telex.CmdAnswer, telex.SourceITelexClient)
	a.Write("A", telex.SourceITelexClient)

	clock.Advance(500*time.Millisecond - time.Nanosecond)
	assert.Empty(t, feed(a, port, 0x03))
	assert.Empty(t, port.in)
	a.Idle()
	assert.Empty(t, port.out)

	clock.Advance(time.Nanosecond)
	assert.Equal(t, []string{"A"}, feed(a, port, 0x03))
	a.Idle()
	assert.Equal(t, []byte{0x1F, 0x03}, port.out)
}

func TestAdapter_LoopbackEchoIsDropped(t *testing.T) {
	a, port, clock := newTestAdapter(t, "TW39")

	a.Write(telex.CmdAnswer, telex.SourceITelexClient)
	clock.Advance(600 * time.Millisecond)

	a.Write("A", telex.SourceITelexClient)
	a.Idle()
	require.Equal(t, []byte{0x1F, 0x03}, port.out)

	// two characters of 160ms each
	assert.Empty(t, feed(a, port, 0x1F))
	clock.Advance(100 * time.Millisecond)
	assert.Empty(t, feed(a, port, 0x03))

	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, []string{"A"}, feed(a, port, 0x03))
}

func TestAdapter_NotEnabledIgnoresCharacters(t *testing.T) {
	a, port, clock := newTestAdapter(t, "TW39")
	clock.Advance(time.Second)

	assert.Empty(t, feed(a, port, 0x03, 0x01))
	a.Idle20Hz()
	assert.Empty(t, drain(a))
}

func TestAdapter_SpecialSequences(t *testing.T) {
	a, port, _ := newTestAdapter(t, "")

	assert.Equal(t,
		[]string{"[", "[", "[", "[", telex.CmdStop, "["},
		feed(a, port, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F))

	assert.Equal(t,
		[]string{"]", "]", "]", "]", telex.CmdStart, "]"},
		feed(a, port, 0x1B, 0x1B, 0x1B, 0x1B, 0x1B))

	// interrupted runs do not count
	assert.NotContains(t, feed(a, port, 0x1F, 0x1F, 0x1F, 0x1F, 0x03, 0x1F, 0x1F, 0x1F, 0x1F), telex.CmdStop)
}

func TestAdapter_SpecialSequencesNeedNonCTSMode(t *testing.T) {
	a, port, _ := newTestAdapter(t, "V.10")

	assert.Equal(t, []string{"[", "[", "[", "[", "["}, feed(a, port, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F))
}

// sample runs Idle20Hz n times.
func sample(a *Adapter, n int) {
	for i := 0; i < n; i++ {
		a.Idle20Hz()
	}
}

func TestAdapter_CTSDebounce(t *testing.T) {
	a, port, _ := newTestAdapter(t, "TW39")

	port.cts = false
	sample(a, ctsDebounceSamples-1)
	assert.Empty(t, drain(a))

	sample(a, 1)
	assert.Equal(t, []string{telex.CmdStop}, drain(a))

	sample(a, 50)
	assert.Empty(t, drain(a), "a stable level emits once")

	port.cts = true
	sample(a, ctsDebounceSamples)
	assert.Equal(t, []string{telex.CmdStart}, drain(a))
}

func TestAdapter_CTSGlitchIsIgnored(t *testing.T) {
	a, port, _ := newTestAdapter(t, "TW39")

	port.cts = false
	sample(a, 10)
	port.cts = true
	sample(a, 1)
	port.cts = false
	sample(a, 10)
	assert.Empty(t, drain(a))

	sample(a, 10)
	assert.Equal(t, []string{telex.CmdStop}, drain(a))
}

func TestAdapter_CTSCounterResetByReceivedByte(t *testing.T) {
	a, port, clock := newTestAdapter(t, "TW39")
	clock.Advance(time.Second)

	port.cts = false
	sample(a, 10)
	assert.Empty(t, feed(a, port, 0x00))
	sample(a, 10)
	assert.Empty(t, drain(a))

	sample(a, 10)
	assert.Equal(t, []string{telex.CmdStop}, drain(a))
}

func TestAdapter_CTSStartOnlyWhileDisabled(t *testing.T) {
	a, port, _ := newTestAdapter(t, "TW39")
	a.Write(telex.CmdAnswer, telex.SourceITelexClient)

	port.cts = false
	sample(a, ctsDebounceSamples)
	assert.Equal(t, []string{telex.CmdStop}, drain(a))

	port.cts = true
	sample(a, ctsDebounceSamples)
	assert.Empty(t, drain(a))
}

func TestAdapter_CTSInverted(t *testing.T) {
	a, port, _ := newTestAdapter(t, "V.10")

	port.cts = true
	sample(a, ctsDebounceSamples)
	assert.Equal(t, []string{telex.CmdStop}, drain(a))
}

func TestAdapter_HardwareErrorsAreLogged(t *testing.T) {
	ml := logger.NewMockLogger()
	ml.On("Debug", mock.Anything, mock.Anything).Maybe()
	ml.On("Warn", "serial line: CTS read failed", mock.Anything).Return()

	a, port, _ := newTestAdapter(t, "TW39", WithLogger(ml))
	port.ctsErr = errors.New("i/o error")

	a.Idle20Hz()
	a.Idle20Hz()

	ml.AssertNumberOfCalls(t, "Warn", 2)
	assert.Empty(t, drain(a))
}

func TestAdapter_Close(t *testing.T) {
	a, port, _ := newTestAdapter(t, "")
	a.Write(telex.CmdAnswer, telex.SourceITelexClient)

	require.NoError(t, a.Close())
	assert.True(t, port.closed)
	assert.False(t, port.rts)
	assert.False(t, port.dtr)
}
