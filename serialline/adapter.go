package serialline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/arloliu/go-telex/baudot"
	"github.com/arloliu/go-telex/internal/queue"
	"github.com/arloliu/go-telex/logger"
	"github.com/arloliu/go-telex/telex"
	"github.com/arloliu/go-telex/ttyport"
)

const (
	enableSquelch = 500 * time.Millisecond
	hangUpSquelch = 1500 * time.Millisecond

	pulseDialBaudRate = 75
	// 25 ms low at 75 baud
	readyToDialPulse byte = 0x01

	// a valid dial pulse is 3 to 5 bits long
	pulseMask byte = 0x13
	pulseBits byte = 0x10

	pulseDigitTimeout  = 500 * time.Millisecond
	ctsDebounceSamples = 20
	specialSequenceLen = 5

	queuePrealloc = 64
)

// Adapter is a teleprinter on a serial current loop interface.
type Adapter struct {
	cfg    *Config
	flags  ModeFlags
	port   Port
	codec  *baudot.Codec
	logger logger.Logger
	now    func() time.Time

	rx queue.Queue[string]
	tx queue.Queue[string]

	enabled bool
	online  bool

	squelchUntil time.Time

	pulseCount int
	lastPulse  time.Time

	ctsStable  bool
	ctsCounter int

	lettersCount int
	figuresCount int
}

var _ telex.Device = (*Adapter)(nil)

// NewAdapter creates an adapter for the interface described by mode and opens
// its port. The adapter starts offline and disabled.
func NewAdapter(mode string, opts ...Option) (*Adapter, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	flags := ParseMode(mode)
	if cfg.loopback != nil {
		flags.Loopback = *cfg.loopback
	}

	port := cfg.port
	if port == nil {
		p, err := ttyport.Open(cfg.portName, cfg.mode)
		if err != nil {
			return nil, fmt.Errorf("serialline: %w", err)
		}
		port = p
	}

	a := &Adapter{
		cfg:    cfg,
		flags:  flags,
		port:   port,
		logger: cfg.logger,
		now:    cfg.now,
		codec: baudot.NewCodec(
			baudot.WithLoopback(flags.Loopback),
			baudot.WithUSCoding(cfg.usCoding),
			baudot.WithCharDuration(cfg.CharDuration()),
			baudot.WithClock(cfg.now),
		),
		rx:        queue.NewSliceQueue[string](queuePrealloc),
		tx:        queue.NewSliceQueue[string](queuePrealloc),
		ctsStable: true,
	}

	a.setEnable(false)
	a.setOnline(false)

	a.logger.Debug("serial line ready", "port", cfg.portName, "mode", mode,
		"baud", cfg.mode.BaudRate, "data_bits", cfg.mode.DataBits, "stop_bits", cfg.mode.StopBits.String())

	return a, nil
}

// Flags returns the mode flags in effect.
func (a *Adapter) Flags() ModeFlags { return a.flags }

// IsEnabled reports whether the machine is enabled.
func (a *Adapter) IsEnabled() bool { return a.enabled }

// IsOnline reports whether the loop is online.
func (a *Adapter) IsOnline() bool { return a.online }

// Read polls the line for one byte and returns the next pending token.
func (a *Adapter) Read() (string, bool) {
	a.poll()

	return a.rx.Dequeue()
}

// Write handles a control token or queues a character for the line. A '#'
// asks the teleprinter for its answerback and is sent as WRU.
func (a *Adapter) Write(token string, _ string) {
	if telex.IsCommand(token) {
		a.command(token)
		return
	}

	if token == telex.CharWRUText {
		token = telex.CharWRU
	}
	a.tx.Enqueue(token)
}

// Idle sends one queued character unless the line is squelched.
func (a *Adapter) Idle() {
	if a.squelched() {
		return
	}

	ch, ok := a.tx.Dequeue()
	if !ok {
		return
	}

	codes := a.codec.Encode(ch)
	if len(codes) == 0 {
		return
	}

	if _, err := a.port.Write(codes); err != nil {
		a.logger.Warn("serial line: write failed", "error", err)
	}
}

// Idle20Hz finishes dialed digits and debounces CTS.
func (a *Adapter) Idle20Hz() {
	now := a.now()

	if a.flags.PulseDial && a.pulseCount > 0 && now.Sub(a.lastPulse) > pulseDigitTimeout {
		a.rx.Enqueue(strconv.Itoa(a.pulseCount % 10))
		a.pulseCount = 0
		a.lastPulse = now
	}

	if a.flags.CTS {
		a.sampleCTS()
	}
}

// Close drops the line and closes the port.
func (a *Adapter) Close() error {
	a.setOnline(false)
	a.setEnable(false)

	return a.port.Close()
}

func (a *Adapter) poll() {
	n, err := a.port.Buffered()
	if err != nil {
		a.logger.Warn("serial line: poll failed", "error", err)
		return
	}
	if n == 0 {
		return
	}

	var buf [1]byte
	n, err = a.port.Read(buf[:])
	if err != nil {
		a.logger.Warn("serial line: read failed", "error", err)
		return
	}
	if n == 0 || a.squelched() {
		return
	}

	var ch string
	switch {
	case a.enabled || a.flags.DedicatedLine:
		ch = a.codec.Decode(buf[:])
		if ch != "" {
			a.checkSpecialSequences(ch)
		}

	case a.flags.PulseDial:
		// 0 is idle or break
		if b := buf[0]; b != 0 && b&pulseMask == pulseBits {
			a.pulseCount++
			a.lastPulse = a.now()
		}
	}

	a.ctsCounter = 0

	if ch != "" {
		a.rx.Enqueue(ch)
		if a.cfg.localEcho {
			a.tx.Enqueue(ch)
		}
	}
}

func (a *Adapter) sampleCTS() {
	raw, err := a.port.CTS()
	if err != nil {
		a.logger.Warn("serial line: CTS read failed", "error", err)
		return
	}

	level := raw != a.flags.InvertCTS
	if level == a.ctsStable {
		a.ctsCounter = 0
		return
	}

	a.ctsCounter++
	if a.ctsCounter != ctsDebounceSamples {
		return
	}

	a.ctsStable = level
	a.logger.Debug("serial line: CTS changed", "level", level)

	switch {
	case !level:
		a.rx.Enqueue(telex.CmdStop)
	case !a.enabled:
		a.rx.Enqueue(telex.CmdStart)
	}
}

// checkSpecialSequences turns runs of shift characters into start and stop
// requests on interfaces without CTS.
func (a *Adapter) checkSpecialSequences(ch string) {
	if a.flags.CTS {
		return
	}

	if ch == telex.CharLetters {
		a.lettersCount++
		if a.lettersCount == specialSequenceLen {
			a.rx.Enqueue(telex.CmdStop)
		}
	} else {
		a.lettersCount = 0
	}

	if ch == telex.CharFigures {
		a.figuresCount++
		if a.figuresCount == specialSequenceLen {
			a.rx.Enqueue(telex.CmdStart)
		}
	} else {
		a.figuresCount = 0
	}
}

func (a *Adapter) command(token string) {
	cmd, _ := telex.ParseCommand(token)

	switch cmd {
	case telex.CommandAnswer:
		a.setPulseDial(false)
		a.setOnline(true)
		a.setEnable(true)

	case telex.CommandHangUp:
		a.setPulseDial(false)
		a.setOnline(false)
		a.setEnable(false)
		if a.flags.Squelch {
			a.armSquelch(hangUpSquelch)
		}

	case telex.CommandReadyToDial:
		a.setOnline(true)
		if !a.flags.PulseDial {
			a.setEnable(true)
			return
		}

		a.setPulseDial(true)
		if _, err := a.port.Write([]byte{readyToDialPulse}); err != nil {
			a.logger.Warn("serial line: ready-to-dial pulse failed", "error", err)
		}
		a.setEnable(false)

	default:
		return
	}

	a.logger.Debug("serial line: command", "command", cmd.String(), "online", a.online, "enabled", a.enabled)
}

func (a *Adapter) setOnline(online bool) {
	a.online = online
	if err := a.port.SetRTS(online != a.flags.InvertRTS); err != nil {
		a.logger.Warn("serial line: set RTS failed", "error", err)
	}
}

func (a *Adapter) setEnable(enable bool) {
	a.enabled = enable
	if err := a.port.SetDTR(enable != a.flags.InvertDTR); err != nil {
		a.logger.Warn("serial line: set DTR failed", "error", err)
	}

	a.codec.Reset()
	if a.flags.Squelch {
		a.armSquelch(enableSquelch)
	}
}

// setPulseDial switches to the pulse dialing baud rate and back.
func (a *Adapter) setPulseDial(on bool) {
	if !a.flags.PulseDial {
		return
	}

	baud := a.cfg.mode.BaudRate
	if on {
		baud = pulseDialBaudRate
	}

	if err := a.port.SetBaudRate(baud); err != nil {
		a.logger.Warn("serial line: set baud rate failed", "baud", baud, "error", err)
	}
}

// armSquelch discards received bytes for d from now. It never shortens an
// armed squelch.
func (a *Adapter) armSquelch(d time.Duration) {
	if until := a.now().Add(d); until.After(a.squelchUntil) {
		a.squelchUntil = until
	}
}

func (a *Adapter) squelched() bool {
	return a.flags.Squelch && a.now().Before(a.squelchUntil)
}
