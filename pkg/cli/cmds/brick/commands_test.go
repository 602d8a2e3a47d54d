package brick

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
)

func TestParseMotorArgs(t *testing.T) {
	state, err := ParseMotorArgs([]string{"B", "-75", "360"})
	require.NoError(t, err)
	require.Equal(t, cmds.OutputB, state.Port)
	require.Equal(t, int8(-75), state.Power)
	require.Equal(t, uint32(360), state.TachoLimit)
	require.Equal(t, cmds.RunStateRunning, state.RunState)

	state, err = ParseMotorArgs([]string{"all", "50"})
	require.NoError(t, err)
	require.Equal(t, cmds.OutputAll, state.Port)
	require.Zero(t, state.TachoLimit)

	for _, args := range [][]string{
		{"A"},
		{"D", "50"},
		{"A", "101"},
		{"A", "fast"},
		{"A", "50", "-1"},
	} {
		_, err = ParseMotorArgs(args)
		require.Error(t, err, "%v", args)
	}
}

func TestParseInputMode(t *testing.T) {
	mode, err := ParseInputMode(cmds.Input3, "touch", "bool")
	require.NoError(t, err)
	require.Equal(t, cmds.SetInputMode{Port: cmds.Input3, Type: cmds.SensorSwitch, Mode: cmds.SensorModeBoolean}, mode)

	_, err = ParseInputMode(cmds.Input1, "radar", "raw")
	require.Error(t, err)
	_, err = ParseInputMode(cmds.Input1, "light", "kelvin")
	require.Error(t, err)
}

func TestParseInbox(t *testing.T) {
	inbox, err := ParseInbox("9")
	require.NoError(t, err)
	require.Equal(t, byte(9), inbox)
	_, err = ParseInbox("10")
	require.Error(t, err)
	_, err = ParseInbox("x")
	require.Error(t, err)
}
