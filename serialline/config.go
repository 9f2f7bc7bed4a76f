package serialline

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-telex/logger"
	"github.com/arloliu/go-telex/ttyport"
)

// Default line configuration of a 50 baud teleprinter.
const (
	DefaultPortName = "/dev/ttyUSB0"
	DefaultBaudRate = 50
	DefaultDataBits = 5
	DefaultStopBits = ttyport.OnePointFiveStopBits
)

// Port is the serial transport of an Adapter. *ttyport.Port implements Port.
type Port interface {
	// Buffered returns the number of bytes that can be read without waiting.
	Buffered() (int, error)
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetBaudRate(baud int) error
	SetRTS(on bool) error
	SetDTR(on bool) error
	CTS() (bool, error)
	Close() error
}

// Config holds the configuration of an Adapter.
type Config struct {
	portName  string
	mode      ttyport.Mode
	usCoding  bool
	loopback  *bool
	localEcho bool
	port      Port
	now       func() time.Time

	logger logger.Logger
}

// NewConfig creates an adapter configuration. opts are applied in order and
// the line settings are validated against the ttyport supported sets.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		portName: DefaultPortName,
		mode: ttyport.Mode{
			BaudRate: DefaultBaudRate,
			DataBits: DefaultDataBits,
			StopBits: DefaultStopBits,
		},
		now:    time.Now,
		logger: logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.mode.Validate(); err != nil {
		return nil, fmt.Errorf("serialline: %w", err)
	}

	return cfg, nil
}

// PortName returns the serial device path.
func (cfg *Config) PortName() string { return cfg.portName }

// LineMode returns baud rate, data bits and stop bits.
func (cfg *Config) LineMode() ttyport.Mode { return cfg.mode }

// CharDuration returns the time one character occupies the line. The CH340
// always frames with a start bit and two stop bits.
func (cfg *Config) CharDuration() time.Duration {
	return time.Duration(cfg.mode.DataBits+3) * time.Second / time.Duration(cfg.mode.BaudRate)
}

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring an Adapter.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithPortName sets the serial device path. Defaults to /dev/ttyUSB0.
func WithPortName(name string) Option {
	return optFunc(func(cfg *Config) error {
		if name == "" {
			return errors.New("serialline: port name must not be empty")
		}
		cfg.portName = name

		return nil
	})
}

// WithBaudRate sets the line baud rate. Defaults to 50.
func WithBaudRate(baud int) Option {
	return optFunc(func(cfg *Config) error {
		cfg.mode.BaudRate = baud
		return nil
	})
}

// WithDataBits sets the character size. Defaults to 5.
func WithDataBits(bits int) Option {
	return optFunc(func(cfg *Config) error {
		cfg.mode.DataBits = bits
		return nil
	})
}

// WithStopBits sets the stop bits. Defaults to 1.5.
func WithStopBits(bits ttyport.StopBits) Option {
	return optFunc(func(cfg *Config) error {
		cfg.mode.StopBits = bits
		return nil
	})
}

// WithUSCoding selects the US teletype figures plane.
func WithUSCoding(enabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.usCoding = enabled
		return nil
	})
}

// WithLoopback overrides the loopback property of the mode.
func WithLoopback(enabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.loopback = &enabled
		return nil
	})
}

// WithLocalEcho sends every received character back to the line.
func WithLocalEcho(enabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.localEcho = enabled
		return nil
	})
}

// WithPort uses an already open transport instead of opening the port name.
func WithPort(p Port) Option {
	return optFunc(func(cfg *Config) error {
		if p == nil {
			return errors.New("serialline: port must not be nil")
		}
		cfg.port = p

		return nil
	})
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return optFunc(func(cfg *Config) error {
		if now == nil {
			return errors.New("serialline: clock must not be nil")
		}
		cfg.now = now

		return nil
	})
}

// WithLogger sets the logger for the adapter.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("serialline: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
