package cmds

import (
	"fmt"

	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// Command codes of direct commands.
const (
	CodeStartProgram          byte = 0x00
	CodeStopProgram           byte = 0x01
	CodePlaySoundFile         byte = 0x02
	CodePlayTone              byte = 0x03
	CodeSetOutputState        byte = 0x04
	CodeSetInputMode          byte = 0x05
	CodeGetOutputState        byte = 0x06
	CodeGetInputValues        byte = 0x07
	CodeResetInputScaledValue byte = 0x08
	CodeMessageWrite          byte = 0x09
	CodeResetMotorPosition    byte = 0x0A
	CodeGetBatteryLevel       byte = 0x0B
	CodeStopSoundPlayback     byte = 0x0C
	CodeKeepAlive             byte = 0x0D
	CodeLSGetStatus           byte = 0x0E
	CodeLSWrite               byte = 0x0F
	CodeLSRead                byte = 0x10
	CodeGetCurrentProgramName byte = 0x11
	CodeMessageRead           byte = 0x13
)

// Command codes of system commands.
const (
	CodeOpenRead           byte = 0x80
	CodeOpenWrite          byte = 0x81
	CodeRead               byte = 0x82
	CodeWrite              byte = 0x83
	CodeClose              byte = 0x84
	CodeDelete             byte = 0x85
	CodeFindFirst          byte = 0x86
	CodeFindNext           byte = 0x87
	CodeGetFirmwareVersion byte = 0x88
	CodeOpenWriteLinear    byte = 0x89
	CodeOpenAppendData     byte = 0x8C
	CodeSetBrickName       byte = 0x98
	CodeGetDeviceInfo      byte = 0x9B
	CodeDeleteUserFlash    byte = 0xA0
)

// Field widths.
const (
	FilenameSize    = 20
	BrickNameSize   = 16
	DeviceNameSize  = 15
	BTAddressSize   = 6
	MessageSize     = 59
	LSDataSize      = 16
	ReplyHeaderSize = 3
)

// OutputPort selects a motor port.
type OutputPort byte

// Output ports.
const (
	OutputA   OutputPort = 0x00
	OutputB   OutputPort = 0x01
	OutputC   OutputPort = 0x02
	OutputAll OutputPort = 0xFF
)

// String implements fmt.Stringer.
func (p OutputPort) String() string {
	switch p {
	case OutputA, OutputB, OutputC:
		return string(rune('A' + p))
	case OutputAll:
		return "ALL"
	}
	return fmt.Sprintf("OUT%d", byte(p))
}

// ParseOutputPort parses A, B, C, ALL or a port number.
func ParseOutputPort(s string) (OutputPort, error) {
	switch s {
	case "A", "a", "0":
		return OutputA, nil
	case "B", "b", "1":
		return OutputB, nil
	case "C", "c", "2":
		return OutputC, nil
	case "ALL", "all", "*":
		return OutputAll, nil
	}
	return 0, fmt.Errorf("invalid output port %q", s)
}

// InputPort selects a sensor port, 0 to 3.
type InputPort byte

// Input ports.
const (
	Input1 InputPort = iota
	Input2
	Input3
	Input4
)

// String implements fmt.Stringer.
func (p InputPort) String() string {
	return fmt.Sprintf("S%d", byte(p)+1)
}

// ParseInputPort parses 1 to 4 or S1 to S4.
func ParseInputPort(s string) (InputPort, error) {
	if len(s) == 2 && (s[0] == 'S' || s[0] == 's') {
		s = s[1:]
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '4' {
		return InputPort(s[0] - '1'), nil
	}
	return 0, fmt.Errorf("invalid input port %q", s)
}

// OutputMode is a bit set of motor modes.
type OutputMode byte

// Output mode bits.
const (
	ModeCoast     OutputMode = 0x00
	ModeMotorOn   OutputMode = 0x01
	ModeBrake     OutputMode = 0x02
	ModeRegulated OutputMode = 0x04
)

// RegulationMode selects motor regulation.
type RegulationMode byte

// Regulation modes.
const (
	RegulationIdle       RegulationMode = 0x00
	RegulationMotorSpeed RegulationMode = 0x01
	RegulationMotorSync  RegulationMode = 0x02
)

// RunState is the motor run state.
type RunState byte

// Run states.
const (
	RunStateIdle     RunState = 0x00
	RunStateRampUp   RunState = 0x10
	RunStateRunning  RunState = 0x20
	RunStateRampDown RunState = 0x40
)

// SensorType configures an input port.
type SensorType byte

// Sensor types.
const (
	SensorNone          SensorType = 0x00
	SensorSwitch        SensorType = 0x01
	SensorTemperature   SensorType = 0x02
	SensorReflection    SensorType = 0x03
	SensorAngle         SensorType = 0x04
	SensorLightActive   SensorType = 0x05
	SensorLightInactive SensorType = 0x06
	SensorSoundDB       SensorType = 0x07
	SensorSoundDBA      SensorType = 0x08
	SensorCustom        SensorType = 0x09
	SensorLowSpeed      SensorType = 0x0A
	SensorLowSpeed9V    SensorType = 0x0B
	SensorHighSpeed     SensorType = 0x0C
	SensorColorFull     SensorType = 0x0D
	SensorColorRed      SensorType = 0x0E
	SensorColorGreen    SensorType = 0x0F
	SensorColorBlue     SensorType = 0x10
	SensorColorNone     SensorType = 0x11
)

// SensorMode selects how raw values are scaled.
type SensorMode byte

// Sensor modes.
const (
	SensorModeRaw             SensorMode = 0x00
	SensorModeBoolean         SensorMode = 0x20
	SensorModeTransitionCount SensorMode = 0x40
	SensorModePeriodCounter   SensorMode = 0x60
	SensorModePctFullScale    SensorMode = 0x80
	SensorModeCelsius         SensorMode = 0xA0
	SensorModeFahrenheit      SensorMode = 0xC0
	SensorModeAngleSteps      SensorMode = 0xE0
	SensorModeSlopeMask       SensorMode = 0x1F
)

// Builder is implemented by every catalog command.
type Builder interface {
	Command() *packet.Command
}
