package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
)

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.pb"))
	require.NoError(t, err)
	require.Empty(t, s.Timings)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nxtd.pb")
	s := &State{DeviceID: "abc", Port: "/dev/rfcomm0", BatteryMillivolts: 8400}
	s.SetStats([]comm.CommandStat{
		{Code: 0x0b, Count: 2, TotalMicros: 7000, AverageMicros: 3500, MinimumMicros: 3000},
	})
	require.NoError(t, Save(path, s))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "abc", loaded.DeviceID)
	require.EqualValues(t, 8400, loaded.BatteryMillivolts)
	stats := loaded.Stats()
	require.Len(t, stats, 1)
	require.Equal(t, byte(0x0b), stats[0].Code)
	require.EqualValues(t, 3000, stats[0].MinimumMicros)

	tracker := comm.NewTracker()
	tracker.Load(stats)
	require.Equal(t, 2500*time.Microsecond, tracker.MinimumWait(0x0b))
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pb")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xff, 0xff}, 0644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nxtd.pb")
	saver := NewSaver(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- saver.Run(ctx) }()

	saver.UpdateStats([]comm.CommandStat{{Code: 0x0d, Count: 1, TotalMicros: 900, AverageMicros: 900, MinimumMicros: 900}})
	saver.Update(func(s *State) { s.BatteryMillivolts = 7900 })
	cancel()
	require.Equal(t, context.Canceled, <-doneCh)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 7900, loaded.BatteryMillivolts)
	require.Len(t, loaded.Timings, 1)
	require.EqualValues(t, 0x0d, loaded.Timings[0].Code)
	require.NotZero(t, loaded.UpdatedAt)
}
