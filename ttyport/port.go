// Package ttyport opens a serial device in raw mode and exposes the modem
// control lines a current-loop interface needs: RTS and DTR as outputs and CTS
// as input.
//
// Reads and writes never block. Only Linux is supported; Open fails with
// ErrUnsupportedPlatform elsewhere.
package ttyport

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnsupportedPlatform is returned by Open on platforms without termios support.
	ErrUnsupportedPlatform = errors.New("ttyport: platform not supported")

	// ErrClosed is returned by operations on a closed port.
	ErrClosed = errors.New("ttyport: port closed")

	// ErrUnsupportedMode is returned for baud rates, data bits or stop bits the
	// port cannot be configured with.
	ErrUnsupportedMode = errors.New("ttyport: unsupported mode")
)

// StopBits is the number of stop bits of a character frame.
type StopBits int

const (
	OneStopBit StopBits = iota
	OnePointFiveStopBits
	TwoStopBits
)

// String returns string representation of the stop bits.
func (s StopBits) String() string {
	switch s {
	case OneStopBit:
		return "1"
	case OnePointFiveStopBits:
		return "1.5"
	case TwoStopBits:
		return "2"
	default:
		return fmt.Sprintf("StopBits(%d)", int(s))
	}
}

var (
	// SupportedBaudRates lists the baud rates Open and SetBaudRate accept.
	SupportedBaudRates = []int{
		50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800,
		2400, 4800, 9600, 19200, 38400, 57600, 115200,
	}

	// SupportedDataBits lists the character sizes Open accepts.
	SupportedDataBits = []int{5, 6, 7, 8}

	// SupportedStopBits lists the stop bit settings Open accepts.
	SupportedStopBits = []StopBits{OneStopBit, OnePointFiveStopBits, TwoStopBits}
)

// Mode is the line configuration of a port.
type Mode struct {
	BaudRate int
	DataBits int
	StopBits StopBits
}

// Validate checks the mode against the supported sets.
func (m Mode) Validate() error {
	if !slices.Contains(SupportedBaudRates, m.BaudRate) {
		return fmt.Errorf("%w: baud rate %d", ErrUnsupportedMode, m.BaudRate)
	}
	if !slices.Contains(SupportedDataBits, m.DataBits) {
		return fmt.Errorf("%w: data bits %d", ErrUnsupportedMode, m.DataBits)
	}
	if !slices.Contains(SupportedStopBits, m.StopBits) {
		return fmt.Errorf("%w: stop bits %s", ErrUnsupportedMode, m.StopBits)
	}

	return nil
}
