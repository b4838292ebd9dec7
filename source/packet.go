package source

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PacketType is the Source RCON packet type discriminant. The wire value
// 2 is context-interpreted: EXECCOMMAND on a request, AUTH_RESPONSE on a
// reply.
type PacketType int32

// Packet types defined by the Source RCON protocol.
const (
	TypeResponseValue PacketType = 0
	TypeExecCommand   PacketType = 2
	TypeAuthResponse  PacketType = 2
	TypeAuth          PacketType = 3
)

func (t PacketType) String() string {
	switch t {
	case TypeResponseValue:
		return "RESPONSE_VALUE"
	case TypeExecCommand:
		return "EXEC_COMMAND/AUTH_RESPONSE"
	case TypeAuth:
		return "AUTH"
	default:
		return fmt.Sprintf("PacketType(%d)", int32(t))
	}
}

func validPacketType(t PacketType) bool {
	switch t {
	case TypeResponseValue, TypeExecCommand, TypeAuth:
		return true
	default:
		return false
	}
}

const (
	fieldSize     = 4 // bytes per int32 field
	trailerSize   = 2
	headerFields  = 2 // id + type
	minPacketSize = headerFields*fieldSize + trailerSize // 10

	// MaxCommandLen is an artificial restriction guarding against
	// accidentally-huge payloads; it mirrors the limit gorcon-style
	// clients apply to outgoing commands.
	MaxCommandLen = 4096
)

// zeroTrailer is the two zero bytes every packet ends with. A non-zero
// trailer is accepted (some servers deviate) but is surfaced via
// Packet.Trailer so callers/loggers can flag it.
var zeroTrailer = [trailerSize]byte{}

// Packet is a decoded Source RCON packet.
type Packet struct {
	ID      int32
	Type    PacketType
	Payload []byte
	Trailer [trailerSize]byte
}

// Size returns the wire "size" field value for p: everything after the
// size field itself.
func (p Packet) Size() int32 {
	return int32(headerFields*fieldSize + len(p.Payload) + trailerSize)
}

// Encode serializes p to its wire representation.
func Encode(p Packet) []byte {
	size := p.Size()
	buf := make([]byte, fieldSize+int(size))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(size))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.ID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.Type))
	copy(buf[12:], p.Payload)
	trailer := p.Trailer
	if trailer == ([trailerSize]byte{}) {
		trailer = zeroTrailer
	}
	copy(buf[12+len(p.Payload):], trailer[:])
	return buf
}

// ReadPacket reads and decodes one packet from r.
func ReadPacket(r io.Reader) (Packet, error) {
	var sizeBuf [fieldSize]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return Packet{}, err
	}
	size := int32(binary.LittleEndian.Uint32(sizeBuf[:]))
	if size < minPacketSize {
		return Packet{}, fmt.Errorf("%w: size %d below minimum %d", ErrInvalidData, size, minPacketSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return Packet{}, err
	}

	id := int32(binary.LittleEndian.Uint32(body[0:4]))
	typ := PacketType(int32(binary.LittleEndian.Uint32(body[4:8])))
	if !validPacketType(typ) {
		return Packet{}, fmt.Errorf("%w: unknown packet type %d", ErrInvalidData, int32(typ))
	}

	payload := body[8 : len(body)-trailerSize]
	var trailer [trailerSize]byte
	copy(trailer[:], body[len(body)-trailerSize:])

	return Packet{ID: id, Type: typ, Payload: payload, Trailer: trailer}, nil
}

// WritePacket encodes and writes p to w.
func WritePacket(w io.Writer, p Packet) error {
	_, err := w.Write(Encode(p))
	return err
}
