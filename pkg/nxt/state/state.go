// Package state persists the daemon state, including the command latency
// table, as protobuf.
package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
)

// CommandTiming is the latency statistics of a command code.
type CommandTiming struct {
	Code          uint32 `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Count         uint64 `protobuf:"varint,2,opt,name=count,proto3" json:"count,omitempty"`
	TotalMicros   uint64 `protobuf:"varint,3,opt,name=total_micros,proto3" json:"total_micros,omitempty"`
	AverageMicros uint64 `protobuf:"varint,4,opt,name=average_micros,proto3" json:"average_micros,omitempty"`
	MinimumMicros uint64 `protobuf:"varint,5,opt,name=minimum_micros,proto3" json:"minimum_micros,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *CommandTiming) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandTiming) Reset() { *m = CommandTiming{} }

// String implements proto.Message.
func (m *CommandTiming) String() string { return proto.CompactTextString(m) }

// State is the persisted daemon state.
type State struct {
	DeviceID          string           `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Port              string           `protobuf:"bytes,2,opt,name=port,proto3" json:"port,omitempty"`
	UpdatedAt         int64            `protobuf:"varint,3,opt,name=updated_at,proto3" json:"updated_at,omitempty"`
	BatteryMillivolts uint32           `protobuf:"varint,4,opt,name=battery_millivolts,proto3" json:"battery_millivolts,omitempty"`
	Timings           []*CommandTiming `protobuf:"bytes,5,rep,name=timings,proto3" json:"timings,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *State) ProtoMessage() {}

// Reset implements proto.Message.
func (m *State) Reset() { *m = State{} }

// String implements proto.Message.
func (m *State) String() string { return proto.CompactTextString(m) }

// SetStats replaces the timing table.
func (m *State) SetStats(stats []comm.CommandStat) {
	m.Timings = make([]*CommandTiming, 0, len(stats))
	for _, s := range stats {
		m.Timings = append(m.Timings, &CommandTiming{
			Code:          uint32(s.Code),
			Count:         s.Count,
			TotalMicros:   s.TotalMicros,
			AverageMicros: s.AverageMicros,
			MinimumMicros: s.MinimumMicros,
		})
	}
}

// Stats converts the timing table for comm.Tracker.Load.
func (m *State) Stats() []comm.CommandStat {
	stats := make([]comm.CommandStat, 0, len(m.Timings))
	for _, t := range m.Timings {
		if t == nil || t.Code > 0xff {
			continue
		}
		stats = append(stats, comm.CommandStat{
			Code:          byte(t.Code),
			Count:         t.Count,
			TotalMicros:   t.TotalMicros,
			AverageMicros: t.AverageMicros,
			MinimumMicros: t.MinimumMicros,
		})
	}
	return stats
}

// Load reads the state file. A missing file is an empty state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &State{}, nil
	} else if err != nil {
		return nil, err
	}
	var s State
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the state file atomically.
func Save(path string, s *State) error {
	data, err := proto.Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Saver writes updates in the background, coalescing updates arriving
// faster than they are saved.
type Saver struct {
	Path string

	state    *State
	updateCh chan func(*State)
}

// NewSaver creates a Saver starting from loaded state.
func NewSaver(path string, initial *State) *Saver {
	if initial == nil {
		initial = &State{}
	}
	return &Saver{Path: path, state: initial, updateCh: make(chan func(*State), 16)}
}

// Update queues a change. It never blocks; when the queue is full the
// change is dropped and logged.
func (s *Saver) Update(fn func(*State)) {
	select {
	case s.updateCh <- fn:
	default:
		glog.Warningf("state %s: update dropped", s.Path)
	}
}

// UpdateStats is a comm.Tracker OnFlush hook.
func (s *Saver) UpdateStats(stats []comm.CommandStat) {
	s.Update(func(st *State) { st.SetStats(stats) })
}

// Run implements framework.Runnable.
func (s *Saver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		case fn := <-s.updateCh:
			fn(s.state)
			s.drain()
		}
	}
}

func (s *Saver) drain() {
	for pending := true; pending; {
		select {
		case fn := <-s.updateCh:
			fn(s.state)
		default:
			pending = false
		}
	}
	s.state.UpdatedAt = time.Now().UnixNano() / int64(time.Millisecond)
	if err := Save(s.Path, s.state); err != nil {
		glog.Errorf("save state %s: %v", s.Path, err)
		return
	}
	glog.V(2).Infof("state saved to %s", s.Path)
}
