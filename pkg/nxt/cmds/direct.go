package cmds

import (
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

func direct(code byte, size, replySize int) *packet.Command {
	return packet.New(packet.CategoryDirect, code, size, replySize)
}

// StartProgram starts a program file on the brick.
type StartProgram struct {
	Filename string
}

// Command implements Builder.
func (c StartProgram) Command() *packet.Command {
	cmd := direct(CodeStartProgram, 2+FilenameSize, ReplyHeaderSize)
	cmd.Packet.PutString(2, FilenameSize, c.Filename)
	return cmd
}

// StopProgram stops the running program.
type StopProgram struct{}

// Command implements Builder.
func (c StopProgram) Command() *packet.Command {
	return direct(CodeStopProgram, 2, ReplyHeaderSize)
}

// PlaySoundFile plays a sound file.
type PlaySoundFile struct {
	Loop     bool
	Filename string
}

// Command implements Builder.
func (c PlaySoundFile) Command() *packet.Command {
	cmd := direct(CodePlaySoundFile, 3+FilenameSize, ReplyHeaderSize)
	cmd.Packet.PutBool(2, c.Loop)
	cmd.Packet.PutString(3, FilenameSize, c.Filename)
	return cmd
}

// PlayTone plays a tone of Frequency Hz for Duration ms.
type PlayTone struct {
	Frequency uint16
	Duration  uint16
}

// Command implements Builder.
func (c PlayTone) Command() *packet.Command {
	cmd := direct(CodePlayTone, 6, ReplyHeaderSize)
	cmd.Packet.PutUint16(2, c.Frequency)
	cmd.Packet.PutUint16(4, c.Duration)
	return cmd
}

// StopSoundPlayback stops sound playback.
type StopSoundPlayback struct{}

// Command implements Builder.
func (c StopSoundPlayback) Command() *packet.Command {
	return direct(CodeStopSoundPlayback, 2, ReplyHeaderSize)
}

// GetBatteryLevel queries the battery voltage.
type GetBatteryLevel struct{}

// Command implements Builder.
func (c GetBatteryLevel) Command() *packet.Command {
	return direct(CodeGetBatteryLevel, 2, 5)
}

// BatteryLevel is the reply of GetBatteryLevel.
type BatteryLevel struct {
	packet.Response
}

// Millivolts gets the battery voltage in mV.
func (r *BatteryLevel) Millivolts() uint16 {
	return r.Packet.Uint16(3)
}

// Voltage gets the battery voltage in V.
func (r *BatteryLevel) Voltage() float64 {
	return float64(r.Millivolts()) / 1000
}

// KeepAlive resets the sleep timer of the brick.
type KeepAlive struct{}

// Command implements Builder.
func (c KeepAlive) Command() *packet.Command {
	return direct(CodeKeepAlive, 2, 7)
}

// KeepAliveReply is the reply of KeepAlive.
type KeepAliveReply struct {
	packet.Response
}

// SleepTimeLimit gets the sleep time limit in ms.
func (r *KeepAliveReply) SleepTimeLimit() uint32 {
	return r.Packet.Uint32(3)
}

// GetCurrentProgramName queries the running program.
type GetCurrentProgramName struct{}

// Command implements Builder.
func (c GetCurrentProgramName) Command() *packet.Command {
	return direct(CodeGetCurrentProgramName, 2, 3+FilenameSize)
}

// CurrentProgramName is the reply of GetCurrentProgramName.
type CurrentProgramName struct {
	packet.Response
}

// Filename gets the program name.
func (r *CurrentProgramName) Filename() string {
	return r.Packet.String(3, FilenameSize)
}

// ResetMotorPosition resets the block or program relative tacho count.
type ResetMotorPosition struct {
	Port     OutputPort
	Relative bool
}

// Command implements Builder.
func (c ResetMotorPosition) Command() *packet.Command {
	cmd := direct(CodeResetMotorPosition, 4, ReplyHeaderSize)
	cmd.Packet.PutUint8(2, byte(c.Port))
	cmd.Packet.PutBool(3, c.Relative)
	return cmd
}

// ResetInputScaledValue resets the scaled value of a sensor.
type ResetInputScaledValue struct {
	Port InputPort
}

// Command implements Builder.
func (c ResetInputScaledValue) Command() *packet.Command {
	cmd := direct(CodeResetInputScaledValue, 3, ReplyHeaderSize)
	cmd.Packet.PutUint8(2, byte(c.Port))
	return cmd
}
