package comm

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

type fakePort struct {
	Respond     func([]byte) []byte
	ReadTimeout time.Duration
	// Gate, if set, is received from before every write.
	Gate        chan struct{}

	lock     sync.Mutex
	rx       bytes.Buffer
	writes   [][]byte
	writeErr error
	flushes  int
	closed   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.Gate != nil {
		<-p.Gate
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if err := p.writeErr; err != nil {
		p.writeErr = nil
		return 0, err
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	if p.Respond != nil {
		p.rx.Write(p.Respond(b))
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	timeout := p.ReadTimeout
	if timeout == 0 {
		timeout = 50 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		p.lock.Lock()
		if p.rx.Len() > 0 {
			n, _ := p.rx.Read(b)
			p.lock.Unlock()
			return n, nil
		}
		closed := p.closed
		p.lock.Unlock()
		if closed {
			return 0, io.EOF
		}
		if time.Now().After(deadline) {
			return 0, timeoutError{}
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *fakePort) Available() (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.rx.Len(), nil
}

func (p *fakePort) Flush() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.flushes++
	p.rx.Reset()
	return nil
}

func (p *fakePort) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) failNextWrite(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.writeErr = err
}

func (p *fakePort) Writes() [][]byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([][]byte(nil), p.writes...)
}

func (p *fakePort) Flushes() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.flushes
}

func (p *fakePort) Closed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}

type fakeOpener struct {
	port     Port
	failures int
	err      error

	lock     sync.Mutex
	attempts int
	configs  []Config
}

func (o *fakeOpener) Open(conf Config) (Port, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.attempts++
	o.configs = append(o.configs, conf)
	if o.failures > 0 {
		o.failures--
		return nil, o.err
	}
	return o.port, nil
}

func (o *fakeOpener) Attempts() int {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.attempts
}

// replyWith answers every command requiring a response with a reply of
// its registered size, customized by fill.
func replyWith(bluetooth bool, fill func(req, reply packet.Packet)) func([]byte) []byte {
	return func(b []byte) []byte {
		if bluetooth {
			b = b[FrameHeaderSize:]
		}
		req := packet.Packet(b)
		if req[0]&packet.NoResponseFlag != 0 {
			return nil
		}
		size, ok := packet.ResponseSize(req)
		if !ok {
			size = 3
		}
		reply := make(packet.Packet, size)
		reply[0], reply[1] = byte(packet.CategoryReply), req.Code()
		if fill != nil {
			fill(req, reply)
		}
		if bluetooth {
			return EncodeFrame(reply)
		}
		return reply
	}
}

func newTestConn(t *testing.T, opener Opener) (*Conn, context.Context) {
	c := NewConn(opener)
	c.ResponseTimeout = 20 * time.Millisecond
	c.OpenRetryDelay = 0
	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(doneCh)
	}()
	t.Cleanup(func() {
		cancel()
		<-doneCh
	})
	return c, ctx
}

func openTestConn(t *testing.T, port *fakePort, conf Config) (*Conn, context.Context) {
	c, ctx := newTestConn(t, &fakeOpener{port: port})
	require.NoError(t, c.Open(ctx, conf))
	return c, ctx
}

func waitResult(t *testing.T, x *Exchange) Result {
	select {
	case r := <-x.ResultChan():
		return r
	case <-time.After(5 * time.Second):
		require.FailNow(t, "exchange not resolved")
	}
	return Result{}
}
