package comm

import (
	"errors"
	"os"

	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

var (
	// ErrNotConnected indicates no serial channel is open.
	ErrNotConnected = errors.New("not connected")
	// ErrInvalidCommand indicates a malformed command, nothing is sent.
	ErrInvalidCommand = packet.ErrInvalidCommand
	// ErrWriteTimeout indicates the telegram couldn't be written.
	ErrWriteTimeout = errors.New("write timeout")
	// ErrReadTimeout indicates no reply within the response timeout.
	ErrReadTimeout = errors.New("read timeout")
	// ErrFramingMismatch indicates a bad Bluetooth length prefix or a bad
	// telegram type byte. Received bytes are discarded.
	ErrFramingMismatch = errors.New("framing mismatch")
	// ErrSerialConfiguration indicates the serial port rejected the
	// configuration.
	ErrSerialConfiguration = errors.New("serial configuration error")
	// ErrConnectionClosing is delivered to every waiter when the
	// connection is closed.
	ErrConnectionClosing = errors.New("connection closing")
)

// IsTimeout checks if an I/O error is a timeout.
func IsTimeout(err error) bool {
	return err != nil && (os.IsTimeout(err) || errors.Is(err, ErrReadTimeout) || errors.Is(err, ErrWriteTimeout))
}
