package serialline

import "strings"

// ModeFlags are the interface properties derived from a mode string.
type ModeFlags struct {
	// Loopback: the loop echoes every transmitted character.
	Loopback bool
	// PulseDial: the machine dials with pulses while not enabled.
	PulseDial bool
	// Squelch: received bytes are discarded for a while after line transitions.
	Squelch bool
	// CTS: the interface signals start and stop on CTS.
	CTS bool
	// InvertCTS, InvertDTR and InvertRTS flip the polarity of a line.
	InvertCTS bool
	InvertDTR bool
	InvertRTS bool
	// DedicatedLine: characters are decoded even while not enabled.
	DedicatedLine bool
}

// ParseMode derives the flags of mode. Recognized names may be combined.
func ParseMode(mode string) ModeFlags {
	m := strings.ToUpper(mode)
	f := ModeFlags{DedicatedLine: true}

	if strings.Contains(m, "TW39") || strings.Contains(m, "TWM") {
		f.Loopback = true
		f.CTS = true
		f.PulseDial = true
		f.Squelch = true
		f.DedicatedLine = false
	}

	if strings.Contains(m, "V.10") || strings.Contains(m, "V10") {
		f.CTS = true
		f.InvertCTS = true
	}

	return f
}
