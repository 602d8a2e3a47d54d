package comm

import (
	"encoding/binary"
	"fmt"
)

// FrameHeaderSize is the size of the Bluetooth length prefix.
const FrameHeaderSize = 2

// EncodeFrame prefixes a telegram with its little-endian length.
func EncodeFrame(payload []byte) []byte {
	b := make([]byte, FrameHeaderSize+len(payload))
	binary.LittleEndian.PutUint16(b, uint16(len(payload)))
	copy(b[FrameHeaderSize:], payload)
	return b
}

// DecodeFrameLength decodes the length prefix.
func DecodeFrameLength(header []byte) (int, error) {
	if len(header) < FrameHeaderSize {
		return 0, fmt.Errorf("%w: %d header bytes", ErrFramingMismatch, len(header))
	}
	return int(binary.LittleEndian.Uint16(header)), nil
}
