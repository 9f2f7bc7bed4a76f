package telex

import (
	"strings"
	"unicode/utf8"
)

// Device is the contract every teleprinter adapter implements.
type Device interface {
	// Read returns the next received token. ok is false if nothing is pending.
	// Read never blocks.
	Read() (token string, ok bool)
	// Write hands a token to the device. source identifies the device the
	// token originates from.
	Write(token string, source string)
	// Idle is called on every iteration of the poll loop.
	Idle()
	// Idle20Hz is called every 50 ms.
	Idle20Hz()
}

// Source identifiers of the built-in devices.
const (
	SourceSerialLine   = "~"
	SourceITelexClient = ">"
	SourceITelexServer = "<"
)

// ESC starts every control token.
const ESC = "\x1b"

// Control tokens.
const (
	CmdAnswer      = ESC + "A"
	CmdHangUp      = ESC + "Z"
	CmdReadyToDial = ESC + "WB"
	CmdStop        = ESC + "ST"
	CmdStart       = ESC + "AT"

	cmdDialPrefix  = ESC + "#"
	cmdQueryPrefix = ESC + "?"
)

// Special characters of the abstract alphabet.
const (
	CharLetters = "["
	CharFigures = "]"
	CharWRU     = "@"
	CharWRUText = "#"
	CharBell    = "%"
	CharNull    = "~"
)

// Command identifies a parsed control token.
type Command int

const (
	CommandNone Command = iota
	CommandAnswer
	CommandHangUp
	CommandReadyToDial
	CommandStop
	CommandStart
	CommandDial
	CommandQuery
	CommandUnknown
)

// String returns string representation of the command.
func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandAnswer:
		return "answer"
	case CommandHangUp:
		return "hang-up"
	case CommandReadyToDial:
		return "ready-to-dial"
	case CommandStop:
		return "stop"
	case CommandStart:
		return "start"
	case CommandDial:
		return "dial"
	case CommandQuery:
		return "query"
	default:
		return "unknown"
	}
}

// DialCommand returns the control token dialing number.
func DialCommand(number string) string {
	return cmdDialPrefix + number
}

// QueryCommand returns the control token looking number up in the directory.
func QueryCommand(number string) string {
	return cmdQueryPrefix + number
}

// IsCommand reports whether token is a control token rather than a character.
func IsCommand(token string) bool {
	return utf8.RuneCountInString(token) != 1
}

// ParseCommand classifies a control token. arg carries the number of dial and
// query commands with surrounding white space removed.
func ParseCommand(token string) (cmd Command, arg string) {
	if !IsCommand(token) {
		return CommandNone, ""
	}

	switch token {
	case CmdAnswer:
		return CommandAnswer, ""
	case CmdHangUp:
		return CommandHangUp, ""
	case CmdReadyToDial:
		return CommandReadyToDial, ""
	case CmdStop:
		return CommandStop, ""
	case CmdStart:
		return CommandStart, ""
	}

	switch {
	case strings.HasPrefix(token, cmdDialPrefix):
		return CommandDial, strings.TrimSpace(token[len(cmdDialPrefix):])
	case strings.HasPrefix(token, cmdQueryPrefix):
		return CommandQuery, strings.TrimSpace(token[len(cmdQueryPrefix):])
	}

	return CommandUnknown, ""
}
