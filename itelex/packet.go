package itelex

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// PacketType is the first byte of an i-Telex packet.
type PacketType byte

const (
	HeartbeatType    PacketType = 0
	DirectDialType   PacketType = 1
	BaudotDataType   PacketType = 2
	EndType          PacketType = 3
	RejectType       PacketType = 4
	AckType          PacketType = 6
	VersionType      PacketType = 7
	SelfTestType     PacketType = 8
	RemoteConfigType PacketType = 9
)

const (
	// ProtocolVersion is the i-Telex protocol version announced by the client.
	ProtocolVersion = 1

	// MaxPayloadSize is the largest payload a length byte can describe.
	MaxPayloadSize = 255

	// packetTypeLimit separates packet type bytes from raw ASCII characters.
	packetTypeLimit = 10

	packetHeaderSize = 2
)

var (
	// ErrPayloadTooLarge is returned when a payload does not fit a length byte.
	ErrPayloadTooLarge = errors.New("itelex: payload too large")

	// ErrMalformedPacket is returned when a packet ends before its declared length.
	ErrMalformedPacket = errors.New("itelex: malformed packet")

	// ErrInvalidPacketType is returned for type bytes outside the packet range.
	ErrInvalidPacketType = errors.New("itelex: invalid packet type")
)

// String returns string representation of the packet type.
func (t PacketType) String() string {
	switch t {
	case HeartbeatType:
		return "heartbeat"
	case DirectDialType:
		return "direct_dial"
	case BaudotDataType:
		return "baudot_data"
	case EndType:
		return "end"
	case RejectType:
		return "reject"
	case AckType:
		return "ack"
	case VersionType:
		return "version"
	case SelfTestType:
		return "self_test"
	case RemoteConfigType:
		return "remote_config"
	default:
		return "type_" + strconv.Itoa(int(t))
	}
}

// IsPacketType reports whether b starts a packet rather than being a raw character.
func IsPacketType(b byte) bool {
	return b < packetTypeLimit
}

// Packet is a single i-Telex packet.
type Packet struct {
	Type    PacketType
	Payload []byte
}

// NewPacket creates a packet. The payload is not copied.
func NewPacket(typ PacketType, payload []byte) (*Packet, error) {
	if !IsPacketType(byte(typ)) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPacketType, typ)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	return &Packet{Type: typ, Payload: payload}, nil
}

// Bytes returns the wire representation of the packet.
func (p *Packet) Bytes() []byte {
	buf := make([]byte, packetHeaderSize, packetHeaderSize+len(p.Payload))
	buf[0] = byte(p.Type)
	buf[1] = byte(len(p.Payload))

	return append(buf, p.Payload...)
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s %v", p.Type, p.Payload)
}

// ReadPacket reads the length byte and payload of a packet whose type byte
// has already been consumed from r.
//
// A payload cut short by EOF or a read error is reported as ErrMalformedPacket.
func ReadPacket(r io.Reader, typ byte) (*Packet, error) {
	if !IsPacketType(typ) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPacketType, typ)
	}

	var length [1]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, fmt.Errorf("%w: %s without length: %w", ErrMalformedPacket, PacketType(typ), err)
	}

	payload := make([]byte, int(length[0]))
	if n, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %s payload %d of %d bytes: %w",
			ErrMalformedPacket, PacketType(typ), n, len(payload), err)
	}

	return &Packet{Type: PacketType(typ), Payload: payload}, nil
}

// AckPacket creates an Acknowledge packet carrying the low byte of the
// cumulative count of received Baudot bytes.
func AckPacket(received int) *Packet {
	return &Packet{Type: AckType, Payload: []byte{byte(received & 0xff)}}
}

// VersionPacket creates the Version packet of this client.
func VersionPacket() *Packet {
	return &Packet{Type: VersionType, Payload: []byte{ProtocolVersion}}
}

// EndPacket creates an End packet.
func EndPacket() *Packet {
	return &Packet{Type: EndType}
}

// DirectDialPacket creates a Direct Dial packet selecting extension.
func DirectDialPacket(extension string) *Packet {
	return &Packet{Type: DirectDialType, Payload: []byte{DirectDialValue(extension)}}
}

// BaudotDataPacket creates a Baudot Data packet.
func BaudotDataPacket(codes []byte) (*Packet, error) {
	return NewPacket(BaudotDataType, codes)
}

// DirectDialValue maps an extension to its Direct Dial byte.
//
// Two digit extensions map to their value with "00" as 100, single digits map
// to 100 plus the digit with "0" as 110. Anything else maps to 0.
func DirectDialValue(extension string) byte {
	n, err := strconv.Atoi(extension)
	if err != nil || n < 0 {
		return 0
	}

	switch len(extension) {
	case 2:
		if n == 0 {
			return 100
		}
		return byte(n)
	case 1:
		if n == 0 {
			return 110
		}
		return byte(n + 100)
	default:
		return 0
	}
}
