package comm

import (
	"context"
	"fmt"
)

// Status is the connection status reported to notifiers.
type Status struct {
	Connected bool
	Port      string
	Type      ConnectionType
}

// String implements fmt.Stringer.
func (s Status) String() string {
	state := "disconnected"
	if s.Connected {
		state = "connected"
	}
	return fmt.Sprintf("%s %s/%s", state, s.Port, s.Type)
}

// StatusNotifier is called when the connection status changed.
// It's invoked from Conn.Run and must not call back into Conn synchronously.
type StatusNotifier interface {
	StatusChanged(context.Context, Status)
}

// StatusChangedFunc is func type of StatusNotifier.
type StatusChangedFunc func(context.Context, Status)

// StatusChanged implements StatusNotifier.
func (f StatusChangedFunc) StatusChanged(ctx context.Context, s Status) {
	f(ctx, s)
}

// Phase is the scheduler state.
type Phase int

// Phases.
const (
	PhaseClosed Phase = iota
	PhaseOpening
	PhaseIdle
	PhaseSending
	PhaseAwaitingResponse
)

var phaseNames = map[Phase]string{
	PhaseClosed:           "closed",
	PhaseOpening:          "opening",
	PhaseIdle:             "idle",
	PhaseSending:          "sending",
	PhaseAwaitingResponse: "awaiting-response",
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Snapshot is a point-in-time view of the scheduler.
type Snapshot struct {
	Phase          Phase
	Connected      bool
	Config         Config
	Pending        bool
	PendingCode    byte
	Priority       int
	Standard       int
	Immediate      int
	ReadTimeouts   int
	PriorityServed int
}
