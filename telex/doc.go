// Package telex defines the character-stream device contract shared by every
// go-telex adapter.
//
// A Device is polled by a single loop: Read returns at most one received token
// without blocking, Write hands a token to the device, and Idle / Idle20Hz are
// periodic ticks. Idle runs as often as the loop can afford, Idle20Hz strictly
// every 50 ms.
//
// # Tokens
//
// A token is either a single character of the abstract teleprinter alphabet or
// an escape-prefixed control string:
//
//   - ESC "A"           answer, the connection is established
//   - ESC "Z"           hang-up, the connection ended
//   - ESC "WB"          ready to dial
//   - ESC "ST"          stop, the line went idle
//   - ESC "AT"          start, the line was requested
//   - ESC "#" <number>  dial number
//   - ESC "?" <number>  look up number in the directory
//
// # Alphabet
//
// Upper-case letters, digits and ITA2 punctuation, plus "\r" and "\n", "["
// for letters-shift, "]" for figures-shift, "@" for who-are-you, "%" for bell
// and "~" for null. Operators see who-are-you as "#".
package telex
