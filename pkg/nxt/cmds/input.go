package cmds

import "github.com/robotalks/nxt.go/pkg/nxt/packet"

// SetInputMode configures a sensor port.
type SetInputMode struct {
	Port InputPort
	Type SensorType
	Mode SensorMode
}

// Command implements Builder.
func (c SetInputMode) Command() *packet.Command {
	cmd := direct(CodeSetInputMode, 5, ReplyHeaderSize)
	cmd.Packet.PutUint8(2, byte(c.Port))
	cmd.Packet.PutUint8(3, byte(c.Type))
	cmd.Packet.PutUint8(4, byte(c.Mode))
	return cmd
}

// GetInputValues queries a sensor.
type GetInputValues struct {
	Port InputPort
}

// Command implements Builder.
func (c GetInputValues) Command() *packet.Command {
	cmd := direct(CodeGetInputValues, 3, 16)
	cmd.Packet.PutUint8(2, byte(c.Port))
	return cmd
}

// InputValues is the reply of GetInputValues.
type InputValues struct {
	packet.Response
}

// Port gets the input port.
func (r *InputValues) Port() InputPort { return InputPort(r.Packet.Uint8(3)) }

// Valid indicates new data is available.
func (r *InputValues) Valid() bool { return r.Packet.Bool(4) }

// Calibrated indicates a calibration file was found and used.
func (r *InputValues) Calibrated() bool { return r.Packet.Bool(5) }

// SensorType gets the configured sensor type.
func (r *InputValues) SensorType() SensorType { return SensorType(r.Packet.Uint8(6)) }

// SensorMode gets the configured sensor mode.
func (r *InputValues) SensorMode() SensorMode { return SensorMode(r.Packet.Uint8(7)) }

// RawValue gets the raw A/D value.
func (r *InputValues) RawValue() uint16 { return r.Packet.Uint16(8) }

// NormalizedValue gets the normalized A/D value.
func (r *InputValues) NormalizedValue() uint16 { return r.Packet.Uint16(10) }

// ScaledValue gets the value scaled by the sensor mode.
func (r *InputValues) ScaledValue() int16 { return r.Packet.Int16(12) }

// CalibratedValue gets the value scaled by the calibration file.
func (r *InputValues) CalibratedValue() int16 { return r.Packet.Int16(14) }
