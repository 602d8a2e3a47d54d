package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// DefaultLoopInterval is the iteration interval of Loop.
const DefaultLoopInterval = 100 * time.Millisecond

// Loop runs Controllers periodically. In each iteration a Controller runs
// when its period elapsed, lower priority levels first.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]*periodicController
	runners     []Runnable
	wakeUpCh    chan struct{}
}

type periodicController struct {
	Controller
	name   string
	period time.Duration
	last   time.Time
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultLoopInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Every registers a Controller executed every period at the priority level.
// A Controller implementing Runnable is also run in the background.
func (l *Loop) Every(priorityLevel int, period time.Duration, ctl Controller) *Loop {
	pc := &periodicController{Controller: ctl, name: fmt.Sprintf("%T", ctl), period: period}
	if named, ok := ctl.(Named); ok {
		pc.name = named.Name()
	}
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], pc)
	if runner, ok := ctl.(Runnable); ok {
		l.runners = append(l.runners, runner)
	}
	return l
}

// AddRunnable adds Runnable implementions running along with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// TriggerNext schedules the next iteration immediately.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	defer runner.Wait()
	defer runner.Stop()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultLoopInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	l.runIteration(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.runIteration(ctx, now)
		case <-l.wakeUpCh:
			l.runIteration(ctx, time.Now())
		}
	}
}

func (l *Loop) runIteration(ctx context.Context, now time.Time) {
	for level := range l.controllers {
		for _, ctl := range l.controllers[level] {
			if !ctl.last.IsZero() && now.Sub(ctl.last) < ctl.period {
				continue
			}
			ctl.last = now
			if err := ctl.Control(ctx); err != nil {
				glog.Errorf("controller %s error: %v", ctl.name, err)
			}
		}
	}
}
