package cmds

import "github.com/robotalks/nxt.go/pkg/nxt/packet"

// SetOutputState drives a motor.
type SetOutputState struct {
	Port       OutputPort
	Power      int8
	Mode       OutputMode
	Regulation RegulationMode
	TurnRatio  int8
	RunState   RunState
	// TachoLimit is the rotation limit in degrees, 0 runs forever.
	TachoLimit uint32
}

// Command implements Builder.
func (c SetOutputState) Command() *packet.Command {
	cmd := direct(CodeSetOutputState, 12, ReplyHeaderSize)
	p := cmd.Packet
	p.PutUint8(2, byte(c.Port))
	p.PutInt8(3, c.Power)
	p.PutUint8(4, byte(c.Mode))
	p.PutUint8(5, byte(c.Regulation))
	p.PutInt8(6, c.TurnRatio)
	p.PutUint8(7, byte(c.RunState))
	p.PutUint32(8, c.TachoLimit)
	return cmd
}

// MotorOn returns the regulated running state at power.
func MotorOn(port OutputPort, power int8, tachoLimit uint32) SetOutputState {
	return SetOutputState{
		Port:       port,
		Power:      power,
		Mode:       ModeMotorOn | ModeBrake | ModeRegulated,
		Regulation: RegulationMotorSpeed,
		RunState:   RunStateRunning,
		TachoLimit: tachoLimit,
	}
}

// MotorStop returns the braked idle state.
func MotorStop(port OutputPort) SetOutputState {
	return SetOutputState{
		Port:     port,
		Mode:     ModeMotorOn | ModeBrake,
		RunState: RunStateRunning,
	}
}

// GetOutputState queries a motor.
type GetOutputState struct {
	Port OutputPort
}

// Command implements Builder.
func (c GetOutputState) Command() *packet.Command {
	cmd := direct(CodeGetOutputState, 3, 25)
	cmd.Packet.PutUint8(2, byte(c.Port))
	return cmd
}

// OutputState is the reply of GetOutputState.
type OutputState struct {
	packet.Response
}

// Port gets the output port.
func (r *OutputState) Port() OutputPort { return OutputPort(r.Packet.Uint8(3)) }

// Power gets the power set point.
func (r *OutputState) Power() int8 { return r.Packet.Int8(4) }

// Mode gets the mode bits.
func (r *OutputState) Mode() OutputMode { return OutputMode(r.Packet.Uint8(5)) }

// Regulation gets the regulation mode.
func (r *OutputState) Regulation() RegulationMode { return RegulationMode(r.Packet.Uint8(6)) }

// TurnRatio gets the turn ratio.
func (r *OutputState) TurnRatio() int8 { return r.Packet.Int8(7) }

// RunState gets the run state.
func (r *OutputState) RunState() RunState { return RunState(r.Packet.Uint8(8)) }

// TachoLimit gets the current limit on a movement in progress.
func (r *OutputState) TachoLimit() uint32 { return r.Packet.Uint32(9) }

// TachoCount gets the count since last reset of the motor counter.
func (r *OutputState) TachoCount() int32 { return r.Packet.Int32(13) }

// BlockTachoCount gets the position relative to the last programmed movement.
func (r *OutputState) BlockTachoCount() int32 { return r.Packet.Int32(17) }

// RotationCount gets the position relative to the last reset of the
// rotation sensor.
func (r *OutputState) RotationCount() int32 { return r.Packet.Int32(21) }
