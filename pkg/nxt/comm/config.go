package comm

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ConnectionType selects the framing on the serial channel.
type ConnectionType int

// Connection types.
const (
	USB ConnectionType = iota
	Bluetooth
)

// String implements fmt.Stringer.
func (t ConnectionType) String() string {
	if t == Bluetooth {
		return "bluetooth"
	}
	return "usb"
}

// ParseConnectionType parses "usb" or "bluetooth" ("bt").
func ParseConnectionType(s string) (ConnectionType, error) {
	switch strings.ToLower(s) {
	case "", "usb":
		return USB, nil
	case "bt", "bluetooth":
		return Bluetooth, nil
	}
	return USB, fmt.Errorf("unknown connection type %q", s)
}

// Serial defaults.
const (
	DefaultBaudRate     = 115200
	MinBaudRate         = 1200
	DefaultIOTimeout    = 2 * time.Second
	DefaultOpenAttempts = 4
)

// Config configures the serial channel.
type Config struct {
	// Port is a device name or a port number, see PortName.
	Port         string
	BaudRate     int
	Type         ConnectionType
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	OpenAttempts int
}

// Normalize fills defaults. A baud rate below MinBaudRate becomes
// DefaultBaudRate.
func (c Config) Normalize() Config {
	if c.BaudRate < MinBaudRate {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultIOTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultIOTimeout
	}
	if c.OpenAttempts <= 0 {
		c.OpenAttempts = DefaultOpenAttempts
	}
	return c
}

// PortName resolves the device name. A plain number N maps to COMN on
// Windows, /dev/rfcommN for Bluetooth and /dev/ttyACMN for USB
// elsewhere.
func (c Config) PortName() string {
	n, err := strconv.Atoi(c.Port)
	if err != nil {
		return c.Port
	}
	switch {
	case runtime.GOOS == "windows":
		return fmt.Sprintf("COM%d", n)
	case c.Type == Bluetooth && runtime.GOOS == "darwin":
		return fmt.Sprintf("/dev/tty.NXT-DevB-%d", n)
	case c.Type == Bluetooth:
		return fmt.Sprintf("/dev/rfcomm%d", n)
	case runtime.GOOS == "darwin":
		return fmt.Sprintf("/dev/tty.usbmodem%d", n)
	}
	return fmt.Sprintf("/dev/ttyACM%d", n)
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("%s@%d/%s", c.PortName(), c.BaudRate, c.Type)
}
