package comm

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	require.Equal(t, []byte{0x02, 0x00, 0x00, 0x0b}, EncodeFrame([]byte{0x00, 0x0b}))
	n, err := DecodeFrameLength([]byte{0x40, 0x01})
	require.NoError(t, err)
	require.Equal(t, 0x140, n)
	_, err = DecodeFrameLength([]byte{0x40})
	require.True(t, errors.Is(err, ErrFramingMismatch))
}

func TestReadReply(t *testing.T) {
	port := &fakePort{}
	port.rx.Write([]byte{0x05, 0x00, 0x02, 0x0b, 0x00, 0xd0, 0x20})
	data, err := readReply(port, true, 5)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x0b, 0x00, 0xd0, 0x20}, data)

	port.rx.Write([]byte{0x02, 0x0b})
	port.ReadTimeout = 5 * time.Millisecond
	_, err = readReply(port, false, 5)
	require.True(t, IsTimeout(err), err)
}

func TestConfigNormalize(t *testing.T) {
	conf := Config{Port: "3"}.Normalize()
	require.Equal(t, DefaultBaudRate, conf.BaudRate)
	require.Equal(t, DefaultIOTimeout, conf.ReadTimeout)
	require.Equal(t, DefaultIOTimeout, conf.WriteTimeout)
	require.Equal(t, DefaultOpenAttempts, conf.OpenAttempts)
	require.Equal(t, 9600, Config{BaudRate: 9600}.Normalize().BaudRate)
	require.Equal(t, DefaultBaudRate, Config{BaudRate: 1199}.Normalize().BaudRate)
}

func TestPortName(t *testing.T) {
	require.Equal(t, "/dev/ttyUSB0", Config{Port: "/dev/ttyUSB0"}.PortName())
	if runtime.GOOS != "linux" {
		t.Skip("port numbers are platform specific")
	}
	require.Equal(t, "/dev/ttyACM3", Config{Port: "3"}.PortName())
	require.Equal(t, "/dev/rfcomm3", Config{Port: "3", Type: Bluetooth}.PortName())
}

func TestParseConnectionType(t *testing.T) {
	for s, expected := range map[string]ConnectionType{
		"":          USB,
		"usb":       USB,
		"BT":        Bluetooth,
		"bluetooth": Bluetooth,
	} {
		typ, err := ParseConnectionType(s)
		require.NoError(t, err)
		require.Equal(t, expected, typ, s)
	}
	_, err := ParseConnectionType("wifi")
	require.Error(t, err)
}
