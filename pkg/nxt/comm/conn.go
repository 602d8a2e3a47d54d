package comm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// Scheduler defaults.
const (
	DefaultResponseTimeout = time.Second
	DefaultMaxReadTimeouts = 5
	DefaultPollInterval    = time.Millisecond
	DefaultFairnessLimit   = 2
	DefaultOpenRetryDelay  = 100 * time.Millisecond
)

// Conn schedules exchanges with a brick over a single serial channel.
// Run must be running for any other method to make progress.
type Conn struct {
	Opener  Opener
	Tracker *Tracker
	// ResponseTimeout bounds the wait for the first reply byte.
	ResponseTimeout time.Duration
	// MaxReadTimeouts consecutive read timeouts are tolerated before the
	// connection is reported disconnected.
	MaxReadTimeouts int
	PollInterval    time.Duration
	FairnessLimit   int
	OpenRetryDelay  time.Duration

	opsCh  chan func()
	doneCh chan struct{}
	io     *worker

	notifiersLock sync.Mutex
	notifiers     []notifierEntry
	notifierSeq   int

	// owned by Run
	ctx            context.Context
	conf           Config
	port           Port
	phase          Phase
	connected      bool
	openSeq        int
	readTimeouts   int
	priorityServed int
	priority       exchangeQueue
	standard       exchangeQueue
	immediate      map[*Exchange]struct{}
	pending        *pendingEntry
	pollTimer      *time.Timer
	pollCh         <-chan time.Time
}

type notifierEntry struct {
	id       int
	notifier StatusNotifier
}

// NewConn creates a Conn.
func NewConn(opener Opener) *Conn {
	return &Conn{
		Opener:          opener,
		Tracker:         NewTracker(),
		ResponseTimeout: DefaultResponseTimeout,
		MaxReadTimeouts: DefaultMaxReadTimeouts,
		PollInterval:    DefaultPollInterval,
		FairnessLimit:   DefaultFairnessLimit,
		OpenRetryDelay:  DefaultOpenRetryDelay,
		opsCh:           make(chan func()),
		doneCh:          make(chan struct{}),
		io:              newWorker(),
		ctx:             context.Background(),
		immediate:       make(map[*Exchange]struct{}),
	}
}

// Run processes the scheduler until ctx is done. On exit the channel is
// closed and all waiters receive ErrConnectionClosing.
func (c *Conn) Run(ctx context.Context) error {
	c.ctx = ctx
	ioCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.io.run(ioCtx, c.opsCh)
	defer close(c.doneCh)
	for {
		select {
		case <-ctx.Done():
			c.shutdown(ErrConnectionClosing)
			return ctx.Err()
		case op := <-c.opsCh:
			op()
		case <-c.pollCh:
			c.poll()
		}
	}
}

// Open opens the serial channel, closing the current one first.
// Opening is attempted Config.OpenAttempts times.
func (c *Conn) Open(ctx context.Context, conf Config) error {
	errCh := make(chan error, 1)
	if err := c.post(ctx, func() { c.open(conf, errCh) }); err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-c.doneCh:
		return ErrConnectionClosing
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the serial channel. Every queued or in-flight exchange is
// resolved with ErrConnectionClosing. Closing a closed Conn succeeds.
func (c *Conn) Close(ctx context.Context) error {
	doneCh := make(chan struct{})
	err := c.post(ctx, func() {
		c.shutdown(ErrConnectionClosing)
		close(doneCh)
	})
	if errors.Is(err, ErrNotConnected) {
		return nil
	} else if err != nil {
		return err
	}
	<-doneCh
	return nil
}

// Do submits a command and returns the Exchange for the result.
// Commands not requiring a response are written directly and resolved
// with an empty successful reply.
func (c *Conn) Do(cmd *packet.Command, pri Priority) *Exchange {
	x := newExchange(cmd, pri)
	if err := cmd.Validate(); err != nil {
		x.fail(err)
		return x
	}
	select {
	case c.opsCh <- func() { c.submit(x) }:
	case <-c.doneCh:
		x.fail(ErrNotConnected)
	}
	return x
}

// Submit is the blocking form of Do. If ctx is done first the exchange
// still completes in the background.
func (c *Conn) Submit(ctx context.Context, cmd *packet.Command, pri Priority) (packet.Reply, error) {
	select {
	case r := <-c.Do(cmd, pri).ResultChan():
		return r.Reply, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SubscribeStatus registers a notifier and returns the func to
// unregister it.
func (c *Conn) SubscribeStatus(n StatusNotifier) func() {
	c.notifiersLock.Lock()
	defer c.notifiersLock.Unlock()
	c.notifierSeq++
	id := c.notifierSeq
	c.notifiers = append(c.notifiers, notifierEntry{id: id, notifier: n})
	return func() {
		c.notifiersLock.Lock()
		defer c.notifiersLock.Unlock()
		for i, ent := range c.notifiers {
			if ent.id == id {
				c.notifiers = append(c.notifiers[:i], c.notifiers[i+1:]...)
				break
			}
		}
	}
}

// Snapshot retrieves the current scheduler state.
func (c *Conn) Snapshot(ctx context.Context) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	if err := c.post(ctx, func() { ch <- c.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return <-ch, nil
}

func (c *Conn) post(ctx context.Context, op func()) error {
	select {
	case c.opsCh <- op:
		return nil
	case <-c.doneCh:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) snapshot() Snapshot {
	s := Snapshot{
		Phase:          c.phase,
		Connected:      c.connected,
		Config:         c.conf,
		Priority:       c.priority.len,
		Standard:       c.standard.len,
		Immediate:      len(c.immediate),
		ReadTimeouts:   c.readTimeouts,
		PriorityServed: c.priorityServed,
	}
	if c.pending != nil {
		s.Pending, s.PendingCode = true, c.pending.x.cmd.Code()
	}
	return s
}

func (c *Conn) open(conf Config, errCh chan<- error) {
	c.shutdown(ErrConnectionClosing)
	conf = conf.Normalize()
	c.conf, c.phase = conf, PhaseOpening
	c.openSeq++
	seq, opener, delay := c.openSeq, c.Opener, c.OpenRetryDelay
	glog.Infof("opening %s", conf)
	c.io.post(func() func() {
		port, err := openPort(opener, conf, delay)
		return func() { c.opened(seq, port, err, errCh) }
	})
}

func (c *Conn) opened(seq int, port Port, err error, errCh chan<- error) {
	if seq != c.openSeq {
		if port != nil {
			port.Close()
		}
		errCh <- ErrConnectionClosing
		return
	}
	if err != nil {
		c.phase = PhaseClosed
		glog.Errorf("open %s failed: %v", c.conf, err)
		errCh <- err
		return
	}
	c.port, c.phase = port, PhaseIdle
	c.readTimeouts, c.priorityServed = 0, 0
	glog.Infof("opened %s", c.conf)
	c.setConnected(true)
	errCh <- nil
	c.dispatch()
}

func openPort(opener Opener, conf Config, delay time.Duration) (Port, error) {
	if opener == nil {
		return nil, fmt.Errorf("%w: no opener", ErrSerialConfiguration)
	}
	var err error
	for attempt := 1; attempt <= conf.OpenAttempts; attempt++ {
		var port Port
		if port, err = opener.Open(conf); err == nil {
			return port, nil
		}
		glog.Warningf("open %s attempt %d/%d: %v", conf.PortName(), attempt, conf.OpenAttempts, err)
		if errors.Is(err, ErrSerialConfiguration) {
			break
		}
		if attempt < conf.OpenAttempts && delay > 0 {
			time.Sleep(delay)
		}
	}
	return nil, err
}

func (c *Conn) shutdown(reason error) {
	c.openSeq++
	c.stopPoll()
	if c.port != nil {
		if err := c.port.Close(); err != nil {
			glog.Warningf("close %s: %v", c.conf.PortName(), err)
		}
		c.port = nil
		glog.Infof("closed %s", c.conf)
	}
	c.phase = PhaseClosed
	if p := c.pending; p != nil {
		c.pending = nil
		p.x.fail(reason)
	}
	fail := func(x *Exchange) { x.fail(reason) }
	c.priority.drain(fail)
	c.standard.drain(fail)
	for x := range c.immediate {
		x.fail(reason)
	}
	c.immediate = make(map[*Exchange]struct{})
	c.readTimeouts, c.priorityServed = 0, 0
	c.setConnected(false)
}

func (c *Conn) submit(x *Exchange) {
	if c.port == nil {
		x.fail(ErrNotConnected)
		return
	}
	if !x.cmd.RequireResponse() {
		c.sendImmediate(x)
		return
	}
	c.queueOf(x).push(x)
	c.dispatch()
}

func (c *Conn) queueOf(x *Exchange) *exchangeQueue {
	if x.priority == PriorityHigh {
		return &c.priority
	}
	return &c.standard
}

func (c *Conn) sendImmediate(x *Exchange) {
	port, frame := c.port, c.encode(x.cmd)
	c.immediate[x] = struct{}{}
	exchangesImmediate.Inc()
	glog.V(2).Infof("TX(nr) % x", frame)
	c.io.post(func() func() {
		err := writeFrame(port, frame)
		return func() {
			delete(c.immediate, x)
			if err != nil {
				c.writeFailed(port, x, err)
				return
			}
			x.resolve(Result{Reply: packet.EmptyResponse(x.cmd.Code())})
		}
	})
}

// next selects the exchange to send. A waiting standard exchange is
// served after FairnessLimit consecutive priority exchanges.
func (c *Conn) next() *Exchange {
	switch {
	case c.priorityServed >= c.FairnessLimit && c.standard.len > 0:
		c.priorityServed = 0
		return c.standard.pop()
	case c.priority.len > 0:
		x := c.priority.pop()
		// a retry isn't counted as another priority exchange
		if x.attempts == 0 {
			c.priorityServed++
		}
		return x
	case c.standard.len > 0:
		c.priorityServed = 0
		return c.standard.pop()
	}
	return nil
}

func (c *Conn) dispatch() {
	if c.port == nil || c.pending != nil {
		return
	}
	x := c.next()
	if x == nil {
		c.phase = PhaseIdle
		return
	}
	x.attempts++
	code := x.cmd.Code()
	entry := &pendingEntry{x: x, port: c.port, minWait: c.Tracker.MinimumWait(code)}
	c.pending, c.phase = entry, PhaseSending
	frame := c.encode(x.cmd)
	glog.V(2).Infof("TX(%s) % x", x.priority, frame)
	c.io.post(func() func() {
		err := writeFrame(entry.port, frame)
		return func() { c.written(entry, err) }
	})
}

func (c *Conn) written(entry *pendingEntry, err error) {
	if entry != c.pending {
		return
	}
	if err != nil {
		c.pending = nil
		c.writeFailed(entry.port, entry.x, err)
		c.Tracker.Cycle()
		c.dispatch()
		return
	}
	entry.start = time.Now()
	c.phase = PhaseAwaitingResponse
	c.schedulePoll(entry.minWait)
}

func (c *Conn) poll() {
	c.pollTimer, c.pollCh = nil, nil
	entry := c.pending
	if entry == nil || c.phase != PhaseAwaitingResponse {
		return
	}
	n, err := entry.port.Available()
	if err != nil {
		c.pending = nil
		c.readFailed(entry, err)
		return
	}
	if n == 0 {
		elapsed := time.Since(entry.start)
		switch {
		case elapsed < entry.minWait:
			c.schedulePoll(entry.minWait - elapsed)
		case elapsed >= c.ResponseTimeout:
			c.pending = nil
			c.timedOut(entry)
		default:
			c.schedulePoll(c.PollInterval)
		}
		return
	}
	c.readTimeouts = 0
	bluetooth, size := c.conf.Type == Bluetooth, entry.x.cmd.ExpectedResponseSize
	c.io.post(func() func() {
		data, err := readReply(entry.port, bluetooth, size)
		return func() { c.received(entry, data, err) }
	})
}

func (c *Conn) received(entry *pendingEntry, data []byte, err error) {
	if entry != c.pending {
		return
	}
	c.pending = nil
	x := entry.x
	switch {
	case err == nil:
	case errors.Is(err, ErrFramingMismatch):
		framingErrorsTotal.Inc()
		glog.Warningf("command 0x%02x: %v", x.cmd.Code(), err)
		c.flush(entry.port)
		c.complete(x, Result{Err: err}, true)
		return
	case IsTimeout(err):
		c.timedOut(entry)
		return
	default:
		c.readFailed(entry, err)
		return
	}
	glog.V(2).Infof("RX % x", data)
	c.Tracker.Record(x.cmd.Code(), time.Since(entry.start))
	c.setConnected(true)
	reply := x.cmd.DecodeResponse(data)
	c.complete(x, Result{Reply: reply}, !reply.Base().Success())
}

func (c *Conn) timedOut(entry *pendingEntry) {
	code := entry.x.cmd.Code()
	readTimeoutsTotal.Inc()
	c.readTimeouts++
	glog.Warningf("command 0x%02x: no reply in %v (%d consecutive)", code, c.ResponseTimeout, c.readTimeouts)
	c.flush(entry.port)
	if c.readTimeouts > c.MaxReadTimeouts {
		c.setConnected(false)
	}
	c.complete(entry.x, Result{Err: fmt.Errorf("%w: command 0x%02x", ErrReadTimeout, code)}, true)
}

func (c *Conn) readFailed(entry *pendingEntry, err error) {
	glog.Errorf("command 0x%02x read: %v", entry.x.cmd.Code(), err)
	if entry.port == c.port {
		c.setConnected(false)
	}
	c.complete(entry.x, Result{Err: err}, false)
}

func (c *Conn) writeFailed(port Port, x *Exchange, err error) {
	writeErrorsTotal.Inc()
	glog.Errorf("command 0x%02x write: %v", x.cmd.Code(), err)
	if IsTimeout(err) && !errors.Is(err, ErrWriteTimeout) {
		err = fmt.Errorf("%w: %v", ErrWriteTimeout, err)
	}
	x.fail(err)
	if port == c.port {
		c.setConnected(false)
	}
}

// complete resolves the exchange, or puts it back at the head of its
// queue while tries remain, and moves on to the next exchange.
func (c *Conn) complete(x *Exchange, r Result, retryable bool) {
	if retryable && c.port != nil && x.attempts < x.cmd.TryCount() {
		exchangesRetried.Inc()
		glog.V(1).Infof("retry command 0x%02x (%d/%d)", x.cmd.Code(), x.attempts, x.cmd.TryCount())
		c.queueOf(x).pushFront(x)
	} else {
		x.resolve(r)
	}
	c.Tracker.Cycle()
	c.dispatch()
}

func (c *Conn) flush(port Port) {
	if err := port.Flush(); err != nil {
		glog.Warningf("flush %s: %v", c.conf.PortName(), err)
	}
}

func (c *Conn) schedulePoll(d time.Duration) {
	c.stopPoll()
	c.pollTimer = time.NewTimer(d)
	c.pollCh = c.pollTimer.C
}

func (c *Conn) stopPoll() {
	if c.pollTimer != nil {
		c.pollTimer.Stop()
		c.pollTimer = nil
	}
	c.pollCh = nil
}

func (c *Conn) setConnected(connected bool) {
	if c.connected == connected {
		return
	}
	c.connected = connected
	statusChangesTotal.Inc()
	status := Status{Connected: connected, Port: c.conf.PortName(), Type: c.conf.Type}
	glog.Infof("status: %s", status)
	c.notifiersLock.Lock()
	notifiers := make([]StatusNotifier, 0, len(c.notifiers))
	for _, ent := range c.notifiers {
		notifiers = append(notifiers, ent.notifier)
	}
	c.notifiersLock.Unlock()
	for _, n := range notifiers {
		n.StatusChanged(c.ctx, status)
	}
}

func (c *Conn) encode(cmd *packet.Command) []byte {
	b := cmd.Bytes()
	if c.conf.Type == Bluetooth {
		return EncodeFrame(b)
	}
	return b
}

func writeFrame(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return err
}

func readReply(r io.Reader, bluetooth bool, size int) ([]byte, error) {
	if bluetooth {
		var header [FrameHeaderSize]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, err
		}
		if n, _ := DecodeFrameLength(header[:]); n != size {
			return nil, fmt.Errorf("%w: frame length %d, expect %d", ErrFramingMismatch, n, size)
		}
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	if !packet.Category(data[0]).IsValid() {
		return nil, fmt.Errorf("%w: telegram type 0x%02x", ErrFramingMismatch, data[0])
	}
	return data, nil
}
