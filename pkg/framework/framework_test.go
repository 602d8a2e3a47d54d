package framework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, context.Canceled).Aggregate())
	boom := errors.New("boom")
	err := errs.Add(boom, errors.New("bang")).Aggregate()
	require.Error(t, err)
	require.True(t, errors.Is(err, boom))
	require.Equal(t, "Multiple errors:\nboom\nbang", err.Error())
}

func TestRunnerCancelsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	r := NewRunner()
	r.Go(
		NamedRun("waiter", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		RunFunc(func(context.Context) error { return boom }),
	)
	err := r.Wait()
	require.True(t, errors.Is(err, boom))
	require.Equal(t, "boom", err.Error())
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	r.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	r.Stop()
	require.NoError(t, r.Wait())
}

type countingController struct {
	calls int32
}

func (c *countingController) Control(context.Context) error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

func (c *countingController) Calls() int32 {
	return atomic.LoadInt32(&c.calls)
}

func TestLoopPeriods(t *testing.T) {
	fast, slow := &countingController{}, &countingController{}
	var order []string
	l := NewLoop()
	l.Interval = time.Millisecond
	l.Every(PrLvControl, 0, ControlFunc(func(ctx context.Context) error {
		if len(order) < 2 {
			order = append(order, "control")
		}
		return fast.Control(ctx)
	}))
	l.Every(PrLvSense, 0, ControlFunc(func(context.Context) error {
		if len(order) < 2 {
			order = append(order, "sense")
		}
		return nil
	}))
	l.Every(PrLvLow, time.Hour, slow)

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- l.Run(ctx) }()
	for deadline := time.Now().Add(time.Second); fast.Calls() < 5 && time.Now().Before(deadline); {
		time.Sleep(time.Millisecond)
	}
	cancel()
	require.Equal(t, context.Canceled, <-doneCh)
	require.True(t, fast.Calls() >= 5)
	require.Equal(t, int32(1), slow.Calls())
	require.Equal(t, []string{"sense", "control"}, order)
}

func TestRunWithContextCloser(t *testing.T) {
	closer := &testCloser{closedCh: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-closer.closedCh
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, closer.closes)
}

type testCloser struct {
	closedCh chan struct{}
	closes   int
}

func (c *testCloser) Close() error {
	if c.closes++; c.closes == 1 {
		close(c.closedCh)
	}
	return nil
}
