// Package baudot converts between the abstract teleprinter alphabet and raw
// ITA2 (Baudot-Murray) line codes.
//
// ITA2 is a 5-bit code: 32 code points shared by two planes selected with the
// letters-shift (LTRS, 0x1F) and figures-shift (FIGS, 0x1B) codes. A Codec keeps
// the current plane as state, so the same code decodes differently depending on
// the last shift received, and encoding a character from the other plane first
// emits the matching shift code.
//
// Code values use the serial bit order: ITA2 bit 1 is the least significant
// bit, which is what a UART sends first.
//
// A Codec can also run in ASCII mode, used for peers that exchange plain
// ASCII bytes; it then only upper-cases and filters characters.
package baudot
