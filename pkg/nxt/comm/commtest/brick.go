// Package commtest provides a simulated brick for testing code built on
// comm.Conn.
package commtest

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// ReadTimeout is how long Read waits for reply bytes.
const ReadTimeout = 20 * time.Millisecond

// Handler fills reply, pre-sized to the registered response size with
// the header set, for the request.
type Handler func(req, reply packet.Packet)

// Brick answers telegrams like a brick. It implements both comm.Opener
// and comm.Port.
type Brick struct {
	lock      sync.Mutex
	bluetooth bool
	handlers  map[byte]Handler
	rx        bytes.Buffer
	requests  []packet.Packet
	opens     int
	closed    bool
}

// NewBrick creates a Brick replying success to every command.
func NewBrick() *Brick {
	return &Brick{handlers: make(map[byte]Handler)}
}

// Handle sets the handler of a command code.
func (b *Brick) Handle(code byte, h Handler) *Brick {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.handlers[code] = h
	return b
}

// Fail makes the command reply with status.
func (b *Brick) Fail(code, status byte) *Brick {
	return b.Handle(code, func(req, reply packet.Packet) {
		reply[2] = status
	})
}

// Requests gets the telegrams received, without framing.
func (b *Brick) Requests() []packet.Packet {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]packet.Packet(nil), b.requests...)
}

// Codes gets the command codes received.
func (b *Brick) Codes() []byte {
	reqs := b.Requests()
	codes := make([]byte, len(reqs))
	for n, req := range reqs {
		codes[n] = req.Code()
	}
	return codes
}

// Opens gets the number of times the brick was opened.
func (b *Brick) Opens() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.opens
}

// Open implements comm.Opener.
func (b *Brick) Open(conf comm.Config) (comm.Port, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.opens++
	b.closed = false
	b.bluetooth = conf.Type == comm.Bluetooth
	b.rx.Reset()
	return b, nil
}

// Write implements io.Writer.
func (b *Brick) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	data := p
	if b.bluetooth {
		data = data[comm.FrameHeaderSize:]
	}
	req := packet.Packet(append([]byte(nil), data...))
	b.requests = append(b.requests, req)
	if req[0]&packet.NoResponseFlag != 0 {
		return len(p), nil
	}
	size, ok := packet.ResponseSize(req)
	if !ok {
		size = 3
	}
	reply := make(packet.Packet, size)
	reply[0], reply[1] = byte(packet.CategoryReply), req.Code()
	if h := b.handlers[req.Code()]; h != nil {
		h(req, reply)
	}
	if b.bluetooth {
		b.rx.Write(comm.EncodeFrame(reply))
	} else {
		b.rx.Write(reply)
	}
	return len(p), nil
}

// Read implements io.Reader.
func (b *Brick) Read(p []byte) (int, error) {
	deadline := time.Now().Add(ReadTimeout)
	for {
		b.lock.Lock()
		if b.rx.Len() > 0 {
			n, _ := b.rx.Read(p)
			b.lock.Unlock()
			return n, nil
		}
		closed := b.closed
		b.lock.Unlock()
		if closed {
			return 0, io.EOF
		}
		if time.Now().After(deadline) {
			return 0, comm.ErrReadTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

// Available implements comm.Port.
func (b *Brick) Available() (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.rx.Len(), nil
}

// Flush implements comm.Port.
func (b *Brick) Flush() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.rx.Reset()
	return nil
}

// Close implements io.Closer.
func (b *Brick) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.closed = true
	return nil
}
