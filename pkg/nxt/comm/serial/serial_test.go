package serial

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
)

type fakeDevice struct {
	rxCh    chan []byte
	closeCh chan struct{}
	once    sync.Once

	lock    sync.Mutex
	written []byte
	resets  int
	block   chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{rxCh: make(chan []byte, 8), closeCh: make(chan struct{})}
}

func (d *fakeDevice) SetMode(*serial.Mode) error { return nil }

func (d *fakeDevice) Read(b []byte) (int, error) {
	select {
	case data := <-d.rxCh:
		return copy(b, data), nil
	case <-d.closeCh:
		return 0, &serial.PortError{}
	case <-time.After(pollTimeout):
		return 0, nil
	}
}

func (d *fakeDevice) Write(b []byte) (int, error) {
	if d.block != nil {
		<-d.block
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.written = append(d.written, b...)
	return len(b), nil
}

func (d *fakeDevice) Drain() error                       { return nil }
func (d *fakeDevice) ResetOutputBuffer() error           { return nil }
func (d *fakeDevice) SetDTR(bool) error                  { return nil }
func (d *fakeDevice) SetRTS(bool) error                  { return nil }
func (d *fakeDevice) Break(time.Duration) error          { return nil }
func (d *fakeDevice) SetReadTimeout(time.Duration) error { return nil }

func (d *fakeDevice) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (d *fakeDevice) ResetInputBuffer() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.resets++
	return nil
}

func (d *fakeDevice) Close() error {
	d.once.Do(func() { close(d.closeCh) })
	return nil
}

func testConfig() comm.Config {
	return comm.Config{
		Port:         "fake",
		ReadTimeout:  50 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
	}.Normalize()
}

func TestPortRead(t *testing.T) {
	dev := newFakeDevice()
	p := newPort(dev, "fake", testConfig())
	defer p.Close()

	n, err := p.Available()
	require.NoError(t, err)
	require.Zero(t, n)

	dev.rxCh <- []byte{0x02, 0x0b, 0x00}
	for deadline := time.Now().Add(time.Second); time.Now().Before(deadline); time.Sleep(time.Millisecond) {
		if n, _ = p.Available(); n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
	buf := make([]byte, 2)
	_, err = io.ReadFull(p, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x0b}, buf)

	require.NoError(t, p.Flush())
	n, _ = p.Available()
	require.Zero(t, n)
	require.Equal(t, 1, dev.resets)

	_, err = p.Read(buf)
	require.True(t, comm.IsTimeout(err), err)
	require.True(t, errors.Is(err, comm.ErrReadTimeout))
}

func TestPortWrite(t *testing.T) {
	dev := newFakeDevice()
	p := newPort(dev, "fake", testConfig())
	defer p.Close()

	n, err := p.Write([]byte{0x00, 0x0b})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{0x00, 0x0b}, dev.written)

	dev.block = make(chan struct{})
	defer close(dev.block)
	_, err = p.Write([]byte{0x00, 0x0d})
	require.True(t, errors.Is(err, comm.ErrWriteTimeout), err)
}

func TestPortClose(t *testing.T) {
	dev := newFakeDevice()
	p := newPort(dev, "fake", testConfig())
	require.NoError(t, p.Close())
	_, err := p.Read(make([]byte, 1))
	require.Error(t, err)
	require.False(t, comm.IsTimeout(err))
	_, err = p.Available()
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	err := classify("fake", errors.New("boom"))
	require.False(t, errors.Is(err, comm.ErrSerialConfiguration))
	require.Contains(t, err.Error(), "fake")
}
