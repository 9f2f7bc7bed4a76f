/*
Package serialline drives a teleprinter on a current loop through a CH340
USB serial adapter and exposes it as a telex.Device.

The teleprinter line is read and written as 5 bit Baudot characters. RTS
switches the loop online and DTR enables the machine (motor on); both may be
inverted by the mode. CTS carries the handshake of interfaces that have one.

The mode string selects the interface, matched case-insensitively by
substring:

	TW39, TWM   loopback, CTS handshake, pulse dialing, squelch
	V.10, V10   CTS handshake, inverted CTS
	(other)     dedicated line

An Adapter is driven by a single poll loop: Read and Idle on every iteration
and Idle20Hz every 50 ms. None of its methods block and none are safe for
concurrent use.
*/
package serialline
