package directory

import (
	"net"
	"strconv"
	"strings"
)

// Mode is the character transport a station expects.
type Mode int

const (
	// Baudot stations exchange framed i-Telex packets.
	Baudot Mode = iota
	// ASCII stations exchange raw ASCII bytes.
	ASCII
)

// String returns string representation of the mode.
func (m Mode) String() string {
	if m == ASCII {
		return "ascii"
	}

	return "baudot"
}

// Entry is a resolved destination. It is not mutated after resolution.
type Entry struct {
	Number    string
	Nick      string
	Extension string
	Name      string
	Mode      Mode
	Host      string
	Port      int
}

// Addr returns "host:port".
func (e *Entry) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// IsASCII reports whether the station exchanges raw ASCII.
func (e *Entry) IsASCII() bool {
	return e.Mode == ASCII
}

// HasNumericExtension reports whether the entry carries an extension made of digits only.
func (e *Entry) HasNumericExtension() bool {
	if e.Extension == "" {
		return false
	}
	for _, r := range e.Extension {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func parseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "A") {
		return ASCII
	}

	return Baudot
}

// modeFromTypeCode maps a directory server type code to a Mode.
func modeFromTypeCode(code int) Mode {
	if code == 3 || code == 4 {
		return ASCII
	}

	return Baudot
}
