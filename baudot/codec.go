package baudot

import (
	"strings"
	"time"
	"unicode"
)

// DefaultCharDuration is the duration of one 5-bit character at 50 baud with
// 1.5 stop bits.
const DefaultCharDuration = 150 * time.Millisecond

// Codec converts characters to line codes and back.
//
// A Codec is stateful and not goroutine-safe; every adapter or connection owns
// its own instance.
type Codec struct {
	ascii        bool
	loopback     bool
	usCoding     bool
	charDuration time.Duration
	now          func() time.Time

	figures *[32]byte
	encode  *[128]encodeEntry

	shift     shiftState
	echoUntil time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithASCII switches the codec to ASCII pass-through.
func WithASCII(enabled bool) Option {
	return func(c *Codec) { c.ascii = enabled }
}

// WithLoopback enables suppression of the local echo of transmitted characters,
// as produced by a current loop that feeds the sender's own signal back into
// its receiver.
func WithLoopback(enabled bool) Option {
	return func(c *Codec) { c.loopback = enabled }
}

// WithUSCoding selects the US teletype figures plane.
func WithUSCoding(enabled bool) Option {
	return func(c *Codec) { c.usCoding = enabled }
}

// WithCharDuration sets the time one character occupies the line.
func WithCharDuration(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.charDuration = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec creates a Codec with an unknown shift state.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		charDuration: DefaultCharDuration,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.figures, c.encode = &figuresPlaneITA2, &encodeITA2
	if c.usCoding {
		c.figures, c.encode = &figuresPlaneUS, &encodeUS
	}

	return c
}

// IsASCII reports whether the codec runs in ASCII mode.
func (c *Codec) IsASCII() bool { return c.ascii }

// CharDuration returns the configured character duration.
func (c *Codec) CharDuration() time.Duration { return c.charDuration }

// Reset forgets the shift state, so the next letter or figure is always
// preceded by a shift code.
func (c *Codec) Reset() {
	c.shift = shiftUnknown
}

// Encode returns the line codes for ch. Characters without a code encode to nil.
func (c *Codec) Encode(ch string) []byte {
	if c.ascii {
		return encodeASCII(ch)
	}

	var out []byte
	for _, r := range strings.ToUpper(ch) {
		if r >= 128 {
			continue
		}

		entry := c.encode[r]
		if !entry.valid {
			continue
		}

		switch {
		case entry.code == codeLetters:
			c.shift = shiftLetters
		case entry.code == codeFigures:
			c.shift = shiftFigures
		case entry.shift != shiftUnknown && entry.shift != c.shift:
			if entry.shift == shiftLetters {
				out = append(out, codeLetters)
			} else {
				out = append(out, codeFigures)
			}
			c.shift = entry.shift
		}
		out = append(out, entry.code)
	}

	if c.loopback && len(out) > 0 {
		now := c.now()
		if c.echoUntil.Before(now) {
			c.echoUntil = now
		}
		c.echoUntil = c.echoUntil.Add(time.Duration(len(out)) * c.charDuration)
	}

	return out
}

// Decode returns the characters for the line codes in b.
func (c *Codec) Decode(b []byte) string {
	if c.ascii {
		return decodeASCII(b)
	}

	if c.loopback && c.now().Before(c.echoUntil) {
		// own echo
		return ""
	}

	var sb strings.Builder
	for _, raw := range b {
		code := raw & codeMask
		switch code {
		case codeLetters:
			c.shift = shiftLetters
		case codeFigures:
			c.shift = shiftFigures
		}

		plane := &lettersPlane
		if c.shift == shiftFigures {
			plane = c.figures
		}

		if ch := plane[code]; ch != 0 {
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}

func encodeASCII(ch string) []byte {
	var out []byte
	for _, r := range strings.ToUpper(ch) {
		if isASCIIChar(r) {
			out = append(out, byte(r))
		}
	}

	return out
}

func decodeASCII(b []byte) string {
	var sb strings.Builder
	for _, raw := range b {
		r := unicode.ToUpper(rune(raw))
		if isASCIIChar(r) {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func isASCIIChar(r rune) bool {
	return r == '\r' || r == '\n' || (r >= 0x20 && r < 0x7F)
}
