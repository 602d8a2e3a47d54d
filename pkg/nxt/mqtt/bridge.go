package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// Topics under the device prefix.
const (
	TopicCommand = "cmd"
	TopicReply   = "reply"
	TopicError   = "error"
	TopicStatus  = "status"
	TopicBattery = "battery"
)

// Status payloads published on TopicStatus.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// ErrBridgeBusy indicates a command received while the request queue is full.
var ErrBridgeBusy = errors.New("bridge busy, command dropped")

// Submitter executes commands, implemented by comm.Conn.
type Submitter interface {
	Submit(context.Context, *packet.Command, comm.Priority) (packet.Reply, error)
}

// Bridge forwards raw command telegrams received on <id>/cmd to the brick.
// The reply telegram is published on <id>/reply. On failure the error text
// is published on <id>/error followed by an empty <id>/reply.
type Bridge struct {
	Queue    *Queue
	Conn     Submitter
	DeviceID string
	Priority comm.Priority
	Timeout  time.Duration

	requestCh chan []byte
}

// NewBridge creates a Bridge.
func NewBridge(q *Queue, conn Submitter, deviceID string) *Bridge {
	return &Bridge{
		Queue:     q,
		Conn:      conn,
		DeviceID:  deviceID,
		Priority:  comm.PriorityHigh,
		Timeout:   5 * time.Second,
		requestCh: make(chan []byte, 16),
	}
}

// Run implements framework.Runnable. Commands are executed in the order
// received.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Queue.Sub(DeviceTopic(b.DeviceID, TopicCommand), b.handleMsg)
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload := <-b.requestCh:
			b.execute(ctx, payload)
		}
	}
}

func (b *Bridge) handleMsg(_ string, payload []byte) {
	select {
	case b.requestCh <- append([]byte(nil), payload...):
	default:
		b.fail(ErrBridgeBusy)
	}
}

func (b *Bridge) execute(ctx context.Context, payload []byte) {
	cmd, err := packet.NewCommand(payload)
	if err != nil {
		b.fail(err)
		return
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}
	reply, err := b.Conn.Submit(ctx, cmd, b.Priority)
	if err != nil {
		b.fail(fmt.Errorf("command 0x%02x: %w", cmd.Code(), err))
		return
	}
	b.Queue.Pub(DeviceTopic(b.DeviceID, TopicReply), reply.Base().Packet)
}

func (b *Bridge) fail(err error) {
	glog.Warningf("bridge %s: %v", b.DeviceID, err)
	b.Queue.Pub(DeviceTopic(b.DeviceID, TopicError), []byte(err.Error()))
	b.Queue.Pub(DeviceTopic(b.DeviceID, TopicReply), nil)
}

// StatusPublisher publishes connection status and battery level as
// retained messages.
type StatusPublisher struct {
	Queue    *Queue
	DeviceID string
}

// StatusChanged implements comm.StatusNotifier. It doesn't wait for the
// publication.
func (p *StatusPublisher) StatusChanged(_ context.Context, s comm.Status) {
	payload := StatusDisconnected
	if s.Connected {
		payload = StatusConnected
	}
	p.Queue.PubWith(DeviceTopic(p.DeviceID, TopicStatus), []byte(payload), 1, true)
}

// PublishBattery publishes the battery level in mV.
func (p *StatusPublisher) PublishBattery(millivolts uint16) {
	p.Queue.PubWith(DeviceTopic(p.DeviceID, TopicBattery),
		[]byte(strconv.Itoa(int(millivolts))), 0, true)
}

// DeviceTopic builds a topic under the device prefix.
func DeviceTopic(deviceID, name string) string {
	return deviceID + "/" + name
}
