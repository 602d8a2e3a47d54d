// Package serial opens NXT channels on serial devices using go.bug.st/serial.
package serial

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
)

// pollTimeout bounds each read of the background reader.
const pollTimeout = 20 * time.Millisecond

// Opener implements comm.Opener.
type Opener struct{}

// Open implements comm.Opener.
func (Opener) Open(conf comm.Config) (comm.Port, error) {
	return Open(conf)
}

// Ports lists the serial devices present.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Port is an open serial device. Received bytes are buffered by a
// background reader so availability can be queried without blocking.
type Port struct {
	port         serial.Port
	name         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	lock   sync.Mutex
	buf    bytes.Buffer
	err    error
	dataCh chan struct{}
	doneCh chan struct{}
}

// Open opens the serial device of conf.
func Open(conf comm.Config) (*Port, error) {
	conf = conf.Normalize()
	name := conf.PortName()
	sp, err := serial.Open(name, &serial.Mode{
		BaudRate: conf.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, classify(name, err)
	}
	if err = sp.SetReadTimeout(pollTimeout); err != nil {
		sp.Close()
		return nil, classify(name, err)
	}
	if err = sp.SetRTS(true); err != nil {
		glog.V(1).Infof("%s: set RTS: %v", name, err)
	}
	return newPort(sp, name, conf), nil
}

func newPort(sp serial.Port, name string, conf comm.Config) *Port {
	p := &Port{
		port:         sp,
		name:         name,
		readTimeout:  conf.ReadTimeout,
		writeTimeout: conf.WriteTimeout,
		dataCh:       make(chan struct{}, 1),
		doneCh:       make(chan struct{}),
	}
	go p.readLoop()
	return p
}

func classify(name string, err error) error {
	var code serial.PortErrorCode = -1
	var pe *serial.PortError
	var pv serial.PortError
	if errors.As(err, &pe) {
		code = pe.Code()
	} else if errors.As(err, &pv) {
		code = pv.Code()
	}
	switch code {
	case serial.InvalidSpeed, serial.InvalidDataBits, serial.InvalidParity,
		serial.InvalidStopBits, serial.InvalidTimeoutValue, serial.InvalidSerialPort:
		return fmt.Errorf("%s: %w: %v", name, comm.ErrSerialConfiguration, err)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// Name returns the device name.
func (p *Port) Name() string {
	return p.name
}

func (p *Port) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := p.port.Read(buf)
		p.lock.Lock()
		if n > 0 {
			p.buf.Write(buf[:n])
		}
		if err != nil && p.err == nil {
			p.err = err
		}
		stop := p.err != nil
		p.lock.Unlock()
		if n > 0 || stop {
			select {
			case p.dataCh <- struct{}{}:
			default:
			}
		}
		if stop {
			close(p.doneCh)
			return
		}
	}
}

// Read implements io.Reader. It fails with a timeout error if nothing is
// received within the read timeout.
func (p *Port) Read(b []byte) (int, error) {
	timer := time.NewTimer(p.readTimeout)
	defer timer.Stop()
	for {
		p.lock.Lock()
		if p.buf.Len() > 0 {
			n, _ := p.buf.Read(b)
			p.lock.Unlock()
			return n, nil
		}
		err := p.err
		p.lock.Unlock()
		if err != nil {
			return 0, err
		}
		select {
		case <-p.dataCh:
		case <-timer.C:
			return 0, &timeoutError{op: "read", err: comm.ErrReadTimeout}
		}
	}
}

// Write implements io.Writer with the write timeout.
func (p *Port) Write(b []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		n, err := p.port.Write(b)
		resultCh <- result{n: n, err: err}
	}()
	timer := time.NewTimer(p.writeTimeout)
	defer timer.Stop()
	select {
	case r := <-resultCh:
		return r.n, r.err
	case <-timer.C:
		return 0, &timeoutError{op: "write", err: comm.ErrWriteTimeout}
	}
}

// Available implements comm.Port.
func (p *Port) Available() (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if n := p.buf.Len(); n > 0 || p.err == nil {
		return n, nil
	}
	return 0, p.err
}

// Flush implements comm.Port.
func (p *Port) Flush() error {
	p.lock.Lock()
	p.buf.Reset()
	p.lock.Unlock()
	return p.port.ResetInputBuffer()
}

// Close implements io.Closer.
func (p *Port) Close() error {
	err := p.port.Close()
	p.lock.Lock()
	if p.err == nil {
		p.err = io.EOF
	}
	p.lock.Unlock()
	<-p.doneCh
	return err
}

type timeoutError struct {
	op  string
	err error
}

func (e *timeoutError) Error() string { return e.op + ": " + e.err.Error() }
func (e *timeoutError) Timeout() bool { return true }
func (e *timeoutError) Unwrap() error { return e.err }
