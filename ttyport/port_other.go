//go:build !linux

package ttyport

// Port is an open serial device.
type Port struct{}

// Open always fails with ErrUnsupportedPlatform.
func Open(_ string, mode Mode) (*Port, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	return nil, ErrUnsupportedPlatform
}

func (p *Port) Name() string                { return "" }
func (p *Port) Buffered() (int, error)      { return 0, ErrUnsupportedPlatform }
func (p *Port) Read(_ []byte) (int, error)  { return 0, ErrUnsupportedPlatform }
func (p *Port) Write(_ []byte) (int, error) { return 0, ErrUnsupportedPlatform }
func (p *Port) SetBaudRate(_ int) error     { return ErrUnsupportedPlatform }
func (p *Port) SetRTS(_ bool) error         { return ErrUnsupportedPlatform }
func (p *Port) SetDTR(_ bool) error         { return ErrUnsupportedPlatform }
func (p *Port) CTS() (bool, error)          { return false, ErrUnsupportedPlatform }
func (p *Port) Close() error                { return nil }
