package comm

import (
	"time"

	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// Priority selects the queue of an exchange.
type Priority int

// Priorities.
const (
	PriorityStandard Priority = iota
	PriorityHigh
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "standard"
}

// Result is the outcome of an exchange. Reply is set when a reply telegram
// was received, even if its status is not success.
type Result struct {
	Reply packet.Reply
	Err   error
}

// Exchange is a command submitted to Conn, waiting for its reply.
type Exchange struct {
	cmd      *packet.Command
	priority Priority
	resultCh chan Result
	submitAt time.Time

	// owned by Conn.Run
	attempts int
	resolved bool
	next     *Exchange
}

func newExchange(cmd *packet.Command, pri Priority) *Exchange {
	return &Exchange{cmd: cmd, priority: pri, resultCh: make(chan Result, 1), submitAt: time.Now()}
}

// Command returns the submitted command.
func (x *Exchange) Command() *packet.Command {
	return x.cmd
}

// Priority returns the submitted priority.
func (x *Exchange) Priority() Priority {
	return x.priority
}

// ResultChan returns the chan to retrieve result.
// Exactly one result is delivered.
func (x *Exchange) ResultChan() <-chan Result {
	return x.resultCh
}

func (x *Exchange) resolve(r Result) {
	if x.resolved {
		return
	}
	x.resolved = true
	if r.Err != nil {
		exchangesFailed.Inc()
	} else {
		exchangesOK.Inc()
		exchangeDuration.UpdateDuration(x.submitAt)
	}
	x.resultCh <- r
}

func (x *Exchange) fail(err error) {
	x.resolve(Result{Err: err})
}

type exchangeQueue struct {
	head, tail *Exchange
	len        int
}

func (q *exchangeQueue) push(x *Exchange) {
	x.next = nil
	if q.head == nil {
		q.head = x
	} else {
		q.tail.next = x
	}
	q.tail = x
	q.len++
}

func (q *exchangeQueue) pushFront(x *Exchange) {
	x.next = q.head
	q.head = x
	if q.tail == nil {
		q.tail = x
	}
	q.len++
}

func (q *exchangeQueue) pop() *Exchange {
	x := q.head
	if x == nil {
		return nil
	}
	if q.head = x.next; q.head == nil {
		q.tail = nil
	}
	x.next = nil
	q.len--
	return x
}

func (q *exchangeQueue) drain(fn func(*Exchange)) {
	for x := q.pop(); x != nil; x = q.pop() {
		fn(x)
	}
}

// pendingEntry is the exchange on the wire.
type pendingEntry struct {
	x       *Exchange
	port    Port
	minWait time.Duration
	// start is reset when the write completes.
	start time.Time
}
