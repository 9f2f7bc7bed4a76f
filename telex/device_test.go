package telex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		token string
		cmd   Command
		arg   string
	}{
		{"A", CommandNone, ""},
		{CmdAnswer, CommandAnswer, ""},
		{CmdHangUp, CommandHangUp, ""},
		{CmdReadyToDial, CommandReadyToDial, ""},
		{CmdStop, CommandStop, ""},
		{CmdStart, CommandStart, ""},
		{DialCommand("234200"), CommandDial, "234200"},
		{DialCommand(" 0234200 \r"), CommandDial, "0234200"},
		{QueryCommand("727272"), CommandQuery, "727272"},
		{ESC + "XX", CommandUnknown, ""},
		{"", CommandUnknown, ""},
	}

	for _, tt := range tests {
		cmd, arg := ParseCommand(tt.token)
		assert.Equal(t, tt.cmd, cmd, "token %q", tt.token)
		assert.Equal(t, tt.arg, arg, "token %q", tt.token)
	}
}

func TestIsCommand(t *testing.T) {
	assert.False(t, IsCommand("["))
	assert.False(t, IsCommand("Ä"), "one character, two bytes")
	assert.True(t, IsCommand("ÄÖ"))
	assert.True(t, IsCommand(CmdHangUp))
	assert.Equal(t, "hang-up", CommandHangUp.String())
}
