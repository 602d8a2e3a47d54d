package sh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
	"github.com/robotalks/nxt.go/pkg/nxt/comm"
	"github.com/robotalks/nxt.go/pkg/nxt/comm/commtest"
	"github.com/robotalks/nxt.go/pkg/nxt/env"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

func openBrick(t *testing.T, brick *commtest.Brick) ConnSubmitter {
	conn := comm.NewConn(brick)
	ctx, cancel := context.WithCancel(context.Background())
	go conn.Run(ctx)
	t.Cleanup(cancel)
	require.NoError(t, conn.Open(ctx, comm.Config{Port: "0"}.Normalize()))
	return ConnSubmitter{Conn: conn, Timeout: time.Second}
}

func TestParseOpenArgs(t *testing.T) {
	conf := env.NewConfig()
	cc, err := ParseOpenArgs(conf, []string{"/dev/rfcomm0", "bt"})
	require.NoError(t, err)
	require.Equal(t, "/dev/rfcomm0", cc.Port)
	require.Equal(t, comm.Bluetooth, cc.Type)
	require.Equal(t, comm.DefaultBaudRate, cc.BaudRate)

	cc, err = ParseOpenArgs(conf, []string{"3", "57600"})
	require.NoError(t, err)
	require.Equal(t, "3", cc.Port)
	require.Equal(t, 57600, cc.BaudRate)
	require.Equal(t, comm.USB, cc.Type)

	_, err = ParseOpenArgs(conf, []string{"3", "serial"})
	require.Error(t, err)
	require.Equal(t, "0", conf.Port)
}

func TestSubmit(t *testing.T) {
	brick := commtest.NewBrick().Handle(cmds.CodeGetBatteryLevel, func(req, reply packet.Packet) {
		reply.PutUint16(3, 7500)
	})
	s := openBrick(t, brick)
	reply, err := s.Submit(cmds.GetBatteryLevel{})
	require.NoError(t, err)
	bat, err := packet.Upcast[*cmds.BatteryLevel](reply)
	require.NoError(t, err)
	require.Equal(t, uint16(7500), bat.Millivolts())
}

func TestSubmitStatus(t *testing.T) {
	brick := commtest.NewBrick().Fail(cmds.CodeStartProgram, packet.StatusFileNotFound)
	s := openBrick(t, brick)
	reply, err := s.Submit(cmds.StartProgram{Filename: "none.rxe"})
	require.Error(t, err)
	require.NotNil(t, reply)
	require.True(t, IsStatus(err, packet.StatusFileNotFound))
	require.False(t, IsStatus(err, packet.StatusNoActiveProgram))
}

func TestFormat(t *testing.T) {
	snap := comm.Snapshot{
		Phase:       comm.PhaseAwaitingResponse,
		Connected:   true,
		Config:      comm.Config{Port: "/dev/ttyACM0"},
		Standard:    2,
		Pending:     true,
		PendingCode: cmds.CodeGetBatteryLevel,
	}
	require.Equal(t, "awaiting-response connected=true port=/dev/ttyACM0 queued=0/2 pending=0x0b", FormatSnapshot(snap))
	require.Equal(t, "closed connected=false queued=0/0", FormatSnapshot(comm.Snapshot{}))

	stat := comm.CommandStat{Code: cmds.CodeKeepAlive, Count: 4, TotalMicros: 8000, AverageMicros: 2000, MinimumMicros: 1500}
	require.Equal(t, "0x0d count=4 avg=2ms min=1.5ms", FormatStat(stat))
}
