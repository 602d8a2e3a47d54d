package brick

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/nxt.go/pkg/cli/sh"
	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

var (
	// BatteryCmd queries the battery level.
	BatteryCmd = ishell.Cmd{
		Name:    "battery",
		Aliases: []string{"bat"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			reply, err := sh.DoCommand(c, cmds.GetBatteryLevel{})
			if err != nil {
				return
			}
			bat, err := packet.Upcast[*cmds.BatteryLevel](reply)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]interface{}{"millivolts": bat.Millivolts()},
				fmt.Sprintf("%.3fV", bat.Voltage()))
		}),
	}

	// VersionCmd queries protocol and firmware versions.
	VersionCmd = ishell.Cmd{
		Name:    "version",
		Aliases: []string{"ver"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			reply, err := sh.DoCommand(c, cmds.GetFirmwareVersion{})
			if err != nil {
				return
			}
			ver, err := packet.Upcast[*cmds.FirmwareVersion](reply)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]string{"protocol": ver.Protocol(), "firmware": ver.Firmware()},
				fmt.Sprintf("protocol %s firmware %s", ver.Protocol(), ver.Firmware()))
		}),
	}

	// InfoCmd queries the device info.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			reply, err := sh.DoCommand(c, cmds.GetDeviceInfo{})
			if err != nil {
				return
			}
			info, err := packet.Upcast[*cmds.DeviceInfo](reply)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]interface{}{
				"name":       info.Name(),
				"bt_address": info.BTAddress(),
				"signal":     info.SignalStrength(),
				"free_flash": info.FreeFlash(),
			}, fmt.Sprintf("%s [%s] free flash %d bytes", info.Name(), info.BTAddress(), info.FreeFlash()))
		}),
	}

	// NameCmd sets the brick name.
	NameCmd = ishell.Cmd{
		Name:    "name",
		Aliases: []string{},
		Help:    "NAME",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			if _, err := sh.DoCommand(c, cmds.SetBrickName{Name: c.Args[0]}); err == nil {
				sh.OK(c)
			}
		}),
	}

	// KeepAliveCmd resets the sleep timer.
	KeepAliveCmd = ishell.Cmd{
		Name:    "keepalive",
		Aliases: []string{"ka"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			reply, err := sh.DoCommand(c, cmds.KeepAlive{})
			if err != nil {
				return
			}
			ka, err := packet.Upcast[*cmds.KeepAliveReply](reply)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]uint32{"sleep_ms": ka.SleepTimeLimit()},
				fmt.Sprintf("sleep in %dms", ka.SleepTimeLimit()))
		}),
	}

	// ToneCmd plays a tone.
	ToneCmd = ishell.Cmd{
		Name:    "tone",
		Aliases: []string{"beep"},
		Help:    "FREQ(Hz) DURATION(ms)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("FREQ and DURATION required"))
				return
			}
			var tone cmds.PlayTone
			val, err := strconv.ParseUint(c.Args[0], 10, 16)
			if err != nil {
				c.Err(fmt.Errorf("Invalid FREQ: %v", err))
				return
			}
			tone.Frequency = uint16(val)
			if val, err = strconv.ParseUint(c.Args[1], 10, 16); err != nil {
				c.Err(fmt.Errorf("Invalid DURATION: %v", err))
				return
			}
			tone.Duration = uint16(val)
			if _, err := sh.DoCommand(c, tone); err == nil {
				sh.OK(c)
			}
		}),
	}

	// MotorCmd runs a motor.
	MotorCmd = ishell.Cmd{
		Name:    "motor",
		Aliases: []string{"m"},
		Help:    "PORT(A|B|C|ALL) POWER(-100..100) [TACHO(degrees)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			state, err := ParseMotorArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if _, err := sh.DoCommand(c, state); err == nil {
				sh.OK(c)
			}
		}),
	}

	// StopCmd stops a motor.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "PORT(A|B|C|ALL)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			port := cmds.OutputAll
			if len(c.Args) > 0 {
				var err error
				if port, err = cmds.ParseOutputPort(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			if _, err := sh.DoCommand(c, cmds.MotorStop(port)); err == nil {
				sh.OK(c)
			}
		}),
	}

	// OutputCmd queries a motor state.
	OutputCmd = ishell.Cmd{
		Name:    "output",
		Aliases: []string{"out"},
		Help:    "PORT(A|B|C)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			port, err := cmds.ParseOutputPort(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			reply, err := sh.DoCommand(c, cmds.GetOutputState{Port: port})
			if err != nil {
				return
			}
			out, err := packet.Upcast[*cmds.OutputState](reply)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]interface{}{
				"port":        out.Port().String(),
				"power":       out.Power(),
				"run_state":   out.RunState(),
				"tacho_limit": out.TachoLimit(),
				"tacho_count": out.TachoCount(),
				"rotation":    out.RotationCount(),
			}, FormatOutputState(out))
		}),
	}

	// SensorCmd reads a sensor, optionally configuring it first.
	SensorCmd = ishell.Cmd{
		Name:    "sensor",
		Aliases: []string{"in"},
		Help:    "PORT(1..4) [TYPE MODE]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			port, err := cmds.ParseInputPort(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) >= 3 {
				mode, err := ParseInputMode(port, c.Args[1], c.Args[2])
				if err != nil {
					c.Err(err)
					return
				}
				if _, err := sh.DoCommand(c, mode); err != nil {
					return
				}
			}
			reply, err := sh.DoCommand(c, cmds.GetInputValues{Port: port})
			if err != nil {
				return
			}
			in, err := packet.Upcast[*cmds.InputValues](reply)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]interface{}{
				"port":       in.Port().String(),
				"valid":      in.Valid(),
				"type":       in.SensorType(),
				"mode":       in.SensorMode(),
				"raw":        in.RawValue(),
				"normalized": in.NormalizedValue(),
				"scaled":     in.ScaledValue(),
			}, fmt.Sprintf("%s valid=%v raw=%d normalized=%d scaled=%d",
				in.Port(), in.Valid(), in.RawValue(), in.NormalizedValue(), in.ScaledValue()))
		}),
	}

	// ProgramCmd starts, stops or shows the running program.
	ProgramCmd = ishell.Cmd{
		Name:    "program",
		Aliases: []string{"prog"},
		Help:    "[start FILE|stop]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			switch {
			case len(c.Args) == 0:
				reply, err := sh.DoCommand(c, cmds.GetCurrentProgramName{})
				if err != nil {
					return
				}
				prog, err := packet.Upcast[*cmds.CurrentProgramName](reply)
				if err != nil {
					c.Err(err)
					return
				}
				sh.Output(c, map[string]string{"program": prog.Filename()}, prog.Filename())
			case c.Args[0] == "start" && len(c.Args) > 1:
				if _, err := sh.DoCommand(c, cmds.StartProgram{Filename: c.Args[1]}); err == nil {
					sh.OK(c)
				}
			case c.Args[0] == "stop":
				if _, err := sh.DoCommand(c, cmds.StopProgram{}); err == nil {
					sh.OK(c)
				}
			default:
				c.Err(fmt.Errorf("usage: program [start FILE|stop]"))
			}
		}),
	}

	// MessageCmd writes to or reads from a mailbox.
	MessageCmd = ishell.Cmd{
		Name:    "msg",
		Aliases: []string{},
		Help:    "INBOX(0..9) [TEXT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("INBOX required"))
				return
			}
			inbox, err := ParseInbox(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) > 1 {
				if _, err := sh.DoCommand(c, cmds.MessageWrite{Inbox: inbox, Text: c.Args[1]}); err == nil {
					sh.OK(c)
				}
				return
			}
			reply, err := sh.DoCommand(c, cmds.MessageRead{
				RemoteInbox: inbox + cmds.RemoteInboxOffset,
				LocalInbox:  inbox,
				Remove:      true,
			})
			if err != nil {
				return
			}
			msg, err := packet.Upcast[*cmds.Message](reply)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]string{"text": msg.Text()}, msg.Text())
		}),
	}
)

// ParseMotorArgs parses PORT POWER [TACHO].
func ParseMotorArgs(args []string) (cmds.SetOutputState, error) {
	if len(args) < 2 {
		return cmds.SetOutputState{}, fmt.Errorf("PORT and POWER required")
	}
	port, err := cmds.ParseOutputPort(args[0])
	if err != nil {
		return cmds.SetOutputState{}, err
	}
	power, err := strconv.Atoi(args[1])
	if err != nil || power < -100 || power > 100 {
		return cmds.SetOutputState{}, fmt.Errorf("Invalid POWER: %q", args[1])
	}
	var tacho uint64
	if len(args) > 2 {
		if tacho, err = strconv.ParseUint(args[2], 10, 32); err != nil {
			return cmds.SetOutputState{}, fmt.Errorf("Invalid TACHO: %v", err)
		}
	}
	return cmds.MotorOn(port, int8(power), uint32(tacho)), nil
}

var sensorTypes = map[string]cmds.SensorType{
	"none":     cmds.SensorNone,
	"touch":    cmds.SensorSwitch,
	"light":    cmds.SensorLightActive,
	"ambient":  cmds.SensorLightInactive,
	"sound":    cmds.SensorSoundDB,
	"color":    cmds.SensorColorFull,
	"lowspeed": cmds.SensorLowSpeed9V,
}

var sensorModes = map[string]cmds.SensorMode{
	"raw":     cmds.SensorModeRaw,
	"bool":    cmds.SensorModeBoolean,
	"pct":     cmds.SensorModePctFullScale,
	"celsius": cmds.SensorModeCelsius,
}

// ParseInputMode parses the sensor TYPE and MODE names.
func ParseInputMode(port cmds.InputPort, typ, mode string) (cmds.SetInputMode, error) {
	t, ok := sensorTypes[typ]
	if !ok {
		return cmds.SetInputMode{}, fmt.Errorf("Invalid TYPE: %q", typ)
	}
	m, ok := sensorModes[mode]
	if !ok {
		return cmds.SetInputMode{}, fmt.Errorf("Invalid MODE: %q", mode)
	}
	return cmds.SetInputMode{Port: port, Type: t, Mode: m}, nil
}

// ParseInbox parses a mailbox number.
func ParseInbox(s string) (byte, error) {
	val, err := strconv.ParseUint(s, 10, 8)
	if err != nil || val >= cmds.Inboxes {
		return 0, fmt.Errorf("Invalid INBOX: %q", s)
	}
	return byte(val), nil
}

// FormatOutputState prints a motor state for display.
func FormatOutputState(out *cmds.OutputState) string {
	return fmt.Sprintf("%s power=%d state=0x%02x tacho=%d/%d rotation=%d",
		out.Port(), out.Power(), byte(out.RunState()),
		out.TachoCount(), out.TachoLimit(), out.RotationCount())
}

func init() {
	sh.AddCmds(
		&BatteryCmd,
		&VersionCmd,
		&InfoCmd,
		&NameCmd,
		&KeepAliveCmd,
		&ToneCmd,
		&MotorCmd,
		&StopCmd,
		&OutputCmd,
		&SensorCmd,
		&ProgramCmd,
		&MessageCmd,
	)
}
