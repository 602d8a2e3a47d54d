package packet

import (
	"fmt"
	"sync"
)

// Reply is a decoded reply telegram.
type Reply interface {
	Base() *Response
}

// Response is the generic reply telegram.
type Response struct {
	Packet Packet

	expectedCode byte
}

// NewResponse creates a reply for a command code from raw bytes.
func NewResponse(code byte, data []byte) *Response {
	r := &Response{Packet: make(Packet, len(data)), expectedCode: code}
	copy(r.Packet, data)
	return r
}

// EmptyResponse synthesizes a successful reply without payload.
func EmptyResponse(code byte) *Response {
	return &Response{Packet: Packet{byte(CategoryReply), code, StatusSuccess}, expectedCode: code}
}

// Base implements Reply.
func (r *Response) Base() *Response {
	return r
}

// ExpectedCode is the code of the command this reply answers.
func (r *Response) ExpectedCode() byte {
	return r.expectedCode
}

// Status gets the status byte.
func (r *Response) Status() byte {
	return r.Packet.Uint8(2)
}

// Success indicates a reply telegram to the expected command with
// zero status.
func (r *Response) Success() bool {
	return len(r.Packet) > 2 &&
		r.Packet[0] == byte(CategoryReply) &&
		r.Packet.Code() == r.expectedCode &&
		r.Status() == StatusSuccess
}

// Err returns nil on success, otherwise the failure.
func (r *Response) Err() error {
	switch {
	case r.Success():
		return nil
	case len(r.Packet) <= 2:
		return fmt.Errorf("%w: short reply %d bytes", ErrInvalidCommand, len(r.Packet))
	case r.Packet[0] != byte(CategoryReply):
		return fmt.Errorf("%w: not a reply 0x%02x", ErrInvalidCommand, r.Packet[0])
	case r.Packet.Code() != r.expectedCode:
		return fmt.Errorf("%w: reply to 0x%02x, expect 0x%02x", ErrTypeMismatch, r.Packet.Code(), r.expectedCode)
	}
	return &StatusError{Code: r.expectedCode, Status: r.Status()}
}

// DecodeFunc builds the typed reply over a generic one.
type DecodeFunc func(*Response) Reply

// SizeFunc computes the reply size from the request telegram.
type SizeFunc func(req Packet) int

// FixedSize is the SizeFunc of a reply that doesn't depend on the request.
func FixedSize(size int) SizeFunc {
	return func(Packet) int { return size }
}

type decoder struct {
	size   SizeFunc
	decode DecodeFunc
}

var (
	decoders     = make(map[byte]decoder)
	decodersLock sync.RWMutex
)

// Register installs the decoder and a fixed reply size for a command code.
// Direct and system codes don't overlap, so the code is the key.
func Register(code byte, responseSize int, decode DecodeFunc) {
	RegisterSizeFunc(code, FixedSize(responseSize), decode)
}

// RegisterSizeFunc installs the decoder for a command code whose reply
// size depends on the request.
func RegisterSizeFunc(code byte, size SizeFunc, decode DecodeFunc) {
	decodersLock.Lock()
	decoders[code] = decoder{size: size, decode: decode}
	decodersLock.Unlock()
}

// ResponseSize gets the registered reply size for a request telegram.
func ResponseSize(req Packet) (int, bool) {
	decodersLock.RLock()
	d, ok := decoders[req.Code()]
	decodersLock.RUnlock()
	if !ok {
		return 0, false
	}
	return d.size(req), true
}

// Decode creates the typed reply for a command code. Unknown codes
// decode to *Response.
func Decode(code byte, raw []byte) Reply {
	return decodeResponse(NewResponse(code, raw))
}

func decodeResponse(r *Response) Reply {
	decodersLock.RLock()
	d, ok := decoders[r.expectedCode]
	decodersLock.RUnlock()
	if !ok || d.decode == nil {
		return r
	}
	return d.decode(r)
}

// Upcast reinterprets a reply as a specific reply type.
func Upcast[T Reply](r Reply) (T, error) {
	if t, ok := r.(T); ok {
		return t, nil
	}
	var zero T
	if r == nil || r.Base() == nil {
		return zero, fmt.Errorf("%w: nil reply", ErrTypeMismatch)
	}
	base := r.Base()
	decoded := decodeResponse(&Response{Packet: base.Packet, expectedCode: base.expectedCode})
	t, ok := decoded.(T)
	if !ok {
		return zero, fmt.Errorf("%w: code 0x%02x decodes to %T, not %T", ErrTypeMismatch, base.expectedCode, decoded, zero)
	}
	return t, nil
}
