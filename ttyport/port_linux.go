//go:build linux

package ttyport

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var toUnixBaudRate = map[int]uint32{
	50:     unix.B50,
	75:     unix.B75,
	110:    unix.B110,
	134:    unix.B134,
	150:    unix.B150,
	200:    unix.B200,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	1800:   unix.B1800,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

var toUnixDataBits = map[int]uint32{
	5: unix.CS5,
	6: unix.CS6,
	7: unix.CS7,
	8: unix.CS8,
}

// Port is an open serial device.
//
// A Port is not goroutine-safe.
type Port struct {
	name string
	fd   int
}

// Open opens the serial device name non-blocking and in raw mode, without flow
// control, and applies mode.
func Open(name string, mode Mode) (*Port, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	fd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0o666)
	if err != nil {
		return nil, fmt.Errorf("ttyport: open %s: %w", name, err)
	}
	p := &Port{name: name, fd: fd}

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("ttyport: tcgetattr %s: %w", name, err)
	}

	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHOK | unix.ECHONL | unix.ISIG | unix.IEXTEN
	t.Oflag &^= unix.OPOST | unix.ONLCR | unix.OCRNL
	t.Iflag &^= unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IGNBRK | unix.INPCK | unix.ISTRIP | unix.IXON | unix.IXOFF
	t.Cflag &^= unix.PARENB | unix.PARODD | unix.CRTSCTS

	t.Cflag &^= unix.CSIZE
	t.Cflag |= toUnixDataBits[mode.DataBits]

	// the UART sends 1.5 stop bits for 5 bit frames when CSTOPB is set
	t.Cflag &^= unix.CSTOPB
	if mode.StopBits != OneStopBit {
		t.Cflag |= unix.CSTOPB
	}

	setSpeed(t, toUnixBaudRate[mode.BaudRate])

	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("ttyport: tcsetattr %s: %w", name, err)
	}

	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("ttyport: flush %s: %w", name, err)
	}

	return p, nil
}

func setSpeed(t *unix.Termios, speed uint32) {
	t.Cflag &^= unix.CBAUD
	t.Cflag |= speed
	t.Ispeed = speed
	t.Ospeed = speed
}

// Name returns the device path.
func (p *Port) Name() string { return p.name }

// Buffered returns the number of received bytes waiting to be read.
func (p *Port) Buffered() (int, error) {
	if p.fd < 0 {
		return 0, ErrClosed
	}

	n, err := unix.IoctlGetInt(p.fd, unix.TIOCINQ)
	if err != nil {
		return 0, fmt.Errorf("ttyport: TIOCINQ: %w", err)
	}

	return n, nil
}

// Read reads what is available. It returns 0 and no error when nothing is.
func (p *Port) Read(b []byte) (int, error) {
	if p.fd < 0 {
		return 0, ErrClosed
	}

	n, err := unix.Read(p.fd, b)
	if errors.Is(err, unix.EAGAIN) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return n, nil
}

// Write queues b for transmission without waiting for the line.
func (p *Port) Write(b []byte) (int, error) {
	if p.fd < 0 {
		return 0, ErrClosed
	}

	n, err := unix.Write(p.fd, b)
	if err != nil {
		return max(n, 0), err
	}

	return n, nil
}

// SetBaudRate changes the baud rate of the open port.
func (p *Port) SetBaudRate(baud int) error {
	if p.fd < 0 {
		return ErrClosed
	}

	speed, ok := toUnixBaudRate[baud]
	if !ok {
		return fmt.Errorf("%w: baud rate %d", ErrUnsupportedMode, baud)
	}

	t, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("ttyport: tcgetattr: %w", err)
	}
	setSpeed(t, speed)

	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("ttyport: tcsetattr: %w", err)
	}

	return nil
}

// SetRTS drives the RTS line.
func (p *Port) SetRTS(on bool) error {
	return p.setModemBit(unix.TIOCM_RTS, on)
}

// SetDTR drives the DTR line.
func (p *Port) SetDTR(on bool) error {
	return p.setModemBit(unix.TIOCM_DTR, on)
}

// CTS returns the level of the CTS line.
func (p *Port) CTS() (bool, error) {
	if p.fd < 0 {
		return false, ErrClosed
	}

	status, err := unix.IoctlGetInt(p.fd, unix.TIOCMGET)
	if err != nil {
		return false, fmt.Errorf("ttyport: TIOCMGET: %w", err)
	}

	return status&unix.TIOCM_CTS != 0, nil
}

func (p *Port) setModemBit(bit int, on bool) error {
	if p.fd < 0 {
		return ErrClosed
	}

	req := uint(unix.TIOCMBIC)
	if on {
		req = unix.TIOCMBIS
	}

	if err := unix.IoctlSetPointerInt(p.fd, req, bit); err != nil {
		return fmt.Errorf("ttyport: set modem bit %#x: %w", bit, err)
	}

	return nil
}

// Close closes the port. Closing a closed port is a no-op.
func (p *Port) Close() error {
	if p.fd < 0 {
		return nil
	}

	err := unix.Close(p.fd)
	p.fd = -1

	return err
}
