package packet

import (
	"encoding/binary"
	"strings"
)

// Category is the telegram category carried in the low bits of byte 0.
type Category byte

// Categories.
const (
	CategoryDirect Category = 0x00
	CategorySystem Category = 0x01
	CategoryReply  Category = 0x02
)

// IsValid checks the category is one of the legal telegram types.
func (c Category) IsValid() bool {
	return c <= CategoryReply
}

// String implements fmt.Stringer.
func (c Category) String() string {
	switch c {
	case CategoryDirect:
		return "direct"
	case CategorySystem:
		return "system"
	case CategoryReply:
		return "reply"
	}
	return "unknown"
}

const (
	// NoResponseFlag is set in byte 0 when no reply is expected.
	NoResponseFlag byte = 0x80
	// HeaderSize is the size of category and code.
	HeaderSize = 2
	// MaxTelegramSize is the largest telegram the brick accepts.
	MaxTelegramSize = 64

	categoryMask byte = 0x7f
)

// Packet is a raw telegram with little-endian field accessors.
// Accessors out of range read zero values and writes are dropped.
type Packet []byte

// Category gets the telegram category.
func (p Packet) Category() Category {
	if len(p) == 0 {
		return 0
	}
	return Category(p[0] & categoryMask)
}

// Code gets the command code.
func (p Packet) Code() byte {
	return p.Uint8(1)
}

// Uint8 reads a byte.
func (p Packet) Uint8(off int) byte {
	if off < 0 || off >= len(p) {
		return 0
	}
	return p[off]
}

// Int8 reads a signed byte.
func (p Packet) Int8(off int) int8 {
	return int8(p.Uint8(off))
}

// Bool reads a byte as boolean.
func (p Packet) Bool(off int) bool {
	return p.Uint8(off) != 0
}

// Uint16 reads a little-endian uint16.
func (p Packet) Uint16(off int) uint16 {
	if off < 0 || off+2 > len(p) {
		return 0
	}
	return binary.LittleEndian.Uint16(p[off:])
}

// Int16 reads a little-endian int16.
func (p Packet) Int16(off int) int16 {
	return int16(p.Uint16(off))
}

// Uint32 reads a little-endian uint32.
func (p Packet) Uint32(off int) uint32 {
	if off < 0 || off+4 > len(p) {
		return 0
	}
	return binary.LittleEndian.Uint32(p[off:])
}

// Int32 reads a little-endian int32.
func (p Packet) Int32(off int) int32 {
	return int32(p.Uint32(off))
}

// String reads a fixed-width ASCII field, stopping at the first zero.
func (p Packet) String(off, width int) string {
	if off < 0 || off >= len(p) {
		return ""
	}
	end := off + width
	if end > len(p) {
		end = len(p)
	}
	s := p[off:end]
	for n, b := range s {
		if b == 0 {
			s = s[:n]
			break
		}
	}
	return strings.TrimRight(string(s), " ")
}

// Bytes returns a copy of a byte range, clipped to the packet.
func (p Packet) Bytes(off, n int) []byte {
	if off < 0 || off >= len(p) || n <= 0 {
		return nil
	}
	if off+n > len(p) {
		n = len(p) - off
	}
	b := make([]byte, n)
	copy(b, p[off:off+n])
	return b
}

// PutUint8 writes a byte.
func (p Packet) PutUint8(off int, v byte) {
	if off >= 0 && off < len(p) {
		p[off] = v
	}
}

// PutInt8 writes a signed byte.
func (p Packet) PutInt8(off int, v int8) {
	p.PutUint8(off, byte(v))
}

// PutBool writes a boolean as 0 or 1.
func (p Packet) PutBool(off int, v bool) {
	var b byte
	if v {
		b = 1
	}
	p.PutUint8(off, b)
}

// PutUint16 writes a little-endian uint16.
func (p Packet) PutUint16(off int, v uint16) {
	if off >= 0 && off+2 <= len(p) {
		binary.LittleEndian.PutUint16(p[off:], v)
	}
}

// PutUint32 writes a little-endian uint32.
func (p Packet) PutUint32(off int, v uint32) {
	if off >= 0 && off+4 <= len(p) {
		binary.LittleEndian.PutUint32(p[off:], v)
	}
}

// PutString writes a fixed-width zero padded ASCII field. The value
// is truncated to width-1 so the field is always terminated.
func (p Packet) PutString(off, width int, s string) {
	if off < 0 || width <= 0 || off+width > len(p) {
		return
	}
	field := p[off : off+width]
	for n := range field {
		field[n] = 0
	}
	if len(s) > width-1 {
		s = s[:width-1]
	}
	copy(field, s)
}

// PutBytes copies data at offset, clipped to the packet.
func (p Packet) PutBytes(off int, data []byte) int {
	if off < 0 || off >= len(p) {
		return 0
	}
	return copy(p[off:], data)
}
