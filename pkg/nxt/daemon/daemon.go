// Package daemon assembles the brick service: the connection scheduler,
// periodic brick polling, the MQTT bridge, the HTTP endpoints and the
// persisted state.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/nxt.go/pkg/framework"
	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
	"github.com/robotalks/nxt.go/pkg/nxt/comm"
	"github.com/robotalks/nxt.go/pkg/nxt/env"
	"github.com/robotalks/nxt.go/pkg/nxt/mqtt"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
	"github.com/robotalks/nxt.go/pkg/nxt/state"
	"github.com/robotalks/nxt.go/pkg/nxt/web"
)

// Defaults.
const (
	DefaultPollTimeout = 3 * time.Second
	DefaultReopenDelay = 5 * time.Second
)

// Daemon is the assembled service.
type Daemon struct {
	Config      *env.Config
	Conn        *comm.Conn
	Saver       *state.Saver
	Hub         *web.Hub
	Server      *web.Server
	Queue       *mqtt.Queue
	Publisher   *mqtt.StatusPublisher
	Bridge      *mqtt.Bridge
	Loop        *framework.Loop
	PollTimeout time.Duration
	ReopenDelay time.Duration

	batteryLock sync.RWMutex
	battery     uint16
}

// New creates the Daemon. The timing statistics persisted from the
// previous run are loaded into the connection.
func New(conf *env.Config, opener comm.Opener) (*Daemon, error) {
	st, err := state.Load(conf.StatePath)
	if err != nil {
		return nil, err
	}
	st.DeviceID = conf.ID()

	d := &Daemon{
		Config:      conf,
		Conn:        comm.NewConn(opener),
		Saver:       state.NewSaver(conf.StatePath, st),
		Hub:         web.NewHub(),
		Loop:        framework.NewLoop(),
		PollTimeout: DefaultPollTimeout,
		ReopenDelay: DefaultReopenDelay,
	}
	d.Conn.Tracker.Load(st.Stats())
	d.Conn.Tracker.OnFlush = d.Saver.UpdateStats
	d.Conn.SubscribeStatus(d.Hub)
	if conf.HTTPAddr != "" {
		d.Server = web.NewServer(conf.HTTPAddr, d.Hub, d.Conn.Tracker)
	}

	if conf.MQTTURL != "" {
		if d.Queue, err = mqtt.NewQueueFromURL(conf.MQTTURL); err != nil {
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		d.Publisher = &mqtt.StatusPublisher{Queue: d.Queue, DeviceID: conf.ID()}
		d.Bridge = mqtt.NewBridge(d.Queue, d.Conn, conf.ID())
		d.Conn.SubscribeStatus(d.Publisher)
	}

	if conf.BatteryInterval > 0 {
		d.Loop.Every(framework.PrLvSense, conf.BatteryInterval, framework.ControlFunc(d.PollBattery))
	}
	if conf.KeepAliveInterval > 0 {
		d.Loop.Every(framework.PrLvControl, conf.KeepAliveInterval, framework.ControlFunc(d.KeepAlive))
	}
	return d, nil
}

// Battery gets the last battery level polled in mV.
func (d *Daemon) Battery() uint16 {
	d.batteryLock.RLock()
	defer d.batteryLock.RUnlock()
	return d.battery
}

// PollBattery queries the battery level and publishes it.
func (d *Daemon) PollBattery(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.PollTimeout)
	defer cancel()
	reply, err := d.Conn.Submit(ctx, cmds.GetBatteryLevel{}.Command(), comm.PriorityStandard)
	if err != nil {
		return d.pollFailed(err)
	}
	if err = reply.Base().Err(); err != nil {
		return err
	}
	bat, err := packet.Upcast[*cmds.BatteryLevel](reply)
	if err != nil {
		return err
	}
	mv := bat.Millivolts()
	d.batteryLock.Lock()
	d.battery = mv
	d.batteryLock.Unlock()
	glog.V(1).Infof("battery %dmV", mv)
	if d.Publisher != nil {
		d.Publisher.PublishBattery(mv)
	}
	d.Saver.Update(func(st *state.State) { st.BatteryMillivolts = uint32(mv) })
	return nil
}

// KeepAlive resets the sleep timer of the brick. The reply isn't needed.
func (d *Daemon) KeepAlive(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.PollTimeout)
	defer cancel()
	cmd := cmds.KeepAlive{}.Command().SetRequireResponse(false)
	if _, err := d.Conn.Submit(ctx, cmd, comm.PriorityStandard); err != nil {
		return d.pollFailed(err)
	}
	return nil
}

// pollFailed hides the errors of polling a closed connection.
func (d *Daemon) pollFailed(err error) error {
	if errors.Is(err, comm.ErrNotConnected) {
		glog.V(2).Info("poll skipped: not connected")
		return nil
	}
	return err
}

// Open opens the port, retrying every ReopenDelay until it's opened or ctx
// is done. A configuration error isn't retried.
func (d *Daemon) Open(ctx context.Context) error {
	conf, err := d.Config.ConnConfig()
	if err != nil {
		return err
	}
	d.Saver.Update(func(st *state.State) { st.Port = conf.PortName() })
	for {
		err := d.Conn.Open(ctx, conf)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, comm.ErrSerialConfiguration) {
			return err
		}
		glog.Warningf("open %s: %v, retry in %v", conf, err, d.ReopenDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.ReopenDelay):
		}
	}
}

// Run implements framework.Runnable. The timing statistics are flushed
// and the state is saved on exit.
func (d *Daemon) Run(ctx context.Context) error {
	saverCtx, stopSaver := context.WithCancel(context.Background())
	saverDone := make(chan struct{})
	go func() {
		d.Saver.Run(saverCtx)
		close(saverDone)
	}()
	defer func() {
		d.Conn.Tracker.Flush()
		stopSaver()
		<-saverDone
	}()

	if d.Queue != nil {
		if token := d.Queue.Connect(); token.Wait() && token.Error() != nil {
			return fmt.Errorf("mqtt connect: %w", token.Error())
		}
		defer d.Queue.Close()
	}

	runner := framework.NewRunnerWith(ctx)
	runner.Go(framework.NamedRun("conn", d.Conn))
	runner.Go(framework.NamedRun("open", framework.RunFunc(d.Open)))
	runner.Go(framework.NamedRun("loop", d.Loop))
	if d.Server != nil {
		runner.Go(framework.NamedRun("web", d.Server))
	}
	if d.Bridge != nil {
		runner.Go(framework.NamedRun("bridge", d.Bridge))
	}
	return runner.Wait()
}
