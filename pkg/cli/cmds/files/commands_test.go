package files

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/nxt.go/pkg/cli/sh"
	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
	"github.com/robotalks/nxt.go/pkg/nxt/comm"
	"github.com/robotalks/nxt.go/pkg/nxt/comm/commtest"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

func openBrick(t *testing.T, brick *commtest.Brick) sh.Submitter {
	conn := comm.NewConn(brick)
	ctx, cancel := context.WithCancel(context.Background())
	go conn.Run(ctx)
	t.Cleanup(cancel)
	require.NoError(t, conn.Open(ctx, comm.Config{Port: "0"}.Normalize()))
	return sh.ConnSubmitter{Conn: conn, Timeout: time.Second}
}

func TestList(t *testing.T) {
	names := []string{"a.rxe", "b.rso", "c.ric"}
	next := 0
	found := func(req, reply packet.Packet) {
		if next >= len(names) {
			reply[2] = packet.StatusFileNotFound
			return
		}
		reply.PutUint8(3, 7)
		reply.PutString(4, cmds.FilenameSize, names[next])
		reply.PutUint32(24, uint32(100*(next+1)))
		next++
	}
	brick := commtest.NewBrick().
		Handle(cmds.CodeFindFirst, found).
		Handle(cmds.CodeFindNext, found)

	files, err := List(openBrick(t, brick), "*.*")
	require.NoError(t, err)
	require.Equal(t, []FileInfo{
		{Name: "a.rxe", Size: 100},
		{Name: "b.rso", Size: 200},
		{Name: "c.ric", Size: 300},
	}, files)
	codes := brick.Codes()
	require.Equal(t, []byte{
		cmds.CodeFindFirst,
		cmds.CodeFindNext,
		cmds.CodeFindNext,
		cmds.CodeFindNext,
		cmds.CodeClose,
	}, codes)
	require.Equal(t, byte(7), brick.Requests()[1].Uint8(2))
}

func TestListEmpty(t *testing.T) {
	brick := commtest.NewBrick().Fail(cmds.CodeFindFirst, packet.StatusFileNotFound)
	files, err := List(openBrick(t, brick), "*.rxe")
	require.NoError(t, err)
	require.Empty(t, files)
	require.Equal(t, []byte{cmds.CodeFindFirst}, brick.Codes())
}

func TestListError(t *testing.T) {
	brick := commtest.NewBrick().Fail(cmds.CodeFindFirst, packet.StatusIllegalFileName)
	_, err := List(openBrick(t, brick), "bad")
	require.Error(t, err)
	require.True(t, sh.IsStatus(err, packet.StatusIllegalFileName))
}
