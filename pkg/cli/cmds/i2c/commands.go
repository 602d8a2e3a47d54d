package i2c

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/nxt.go/pkg/cli/sh"
	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// Polling of the low speed status while a transaction is pending.
const (
	StatusPolls        = 10
	StatusPollInterval = 10 * time.Millisecond
)

// Read runs a register read transaction and returns the data.
func Read(s sh.Submitter, req cmds.I2CRead) ([]byte, error) {
	if _, err := s.Submit(req); err != nil {
		return nil, err
	}
	for n := 0; ; n++ {
		reply, err := s.Submit(cmds.LSGetStatus{Port: req.Port})
		if err == nil {
			st, err := packet.Upcast[*cmds.LSStatus](reply)
			if err != nil {
				return nil, err
			}
			if st.BytesReady() >= req.Length {
				break
			}
		} else if !sh.IsStatus(err, packet.StatusPendingTransaction) {
			return nil, err
		}
		if n >= StatusPolls {
			return nil, fmt.Errorf("port %s: no data after %d polls", req.Port, n)
		}
		time.Sleep(StatusPollInterval)
	}
	reply, err := s.Submit(cmds.LSRead{Port: req.Port})
	if err != nil {
		return nil, err
	}
	rx, err := packet.Upcast[*cmds.LSReadReply](reply)
	if err != nil {
		return nil, err
	}
	return rx.RxData(), nil
}

// Identity is the identification registers of a digital sensor.
type Identity struct {
	Version    string `json:"version"`
	ProductID  string `json:"product_id"`
	SensorType string `json:"sensor_type"`
}

// Identify reads the identification registers.
func Identify(s sh.Submitter, port cmds.InputPort) (id Identity, err error) {
	regs := []struct {
		reg  byte
		size int
		val  *string
	}{
		{cmds.I2CRegVersion, cmds.I2CVersionSize, &id.Version},
		{cmds.I2CRegProductID, cmds.I2CProductIDSize, &id.ProductID},
		{cmds.I2CRegSensorType, cmds.I2CSensorTypeSize, &id.SensorType},
	}
	for _, r := range regs {
		data, err := Read(s, cmds.I2CRead{Port: port, Register: r.reg, Length: byte(r.size)})
		if err != nil {
			return id, err
		}
		*r.val = cmds.I2CString(data)
	}
	return id, nil
}

// ParseByte parses a decimal or 0x prefixed byte.
func ParseByte(s string) (byte, error) {
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(val), nil
}

func parsePort(c *ishell.Context, usage string, minArgs int) (cmds.InputPort, bool) {
	if len(c.Args) < minArgs {
		c.Err(fmt.Errorf("%s required", usage))
		return 0, false
	}
	port, err := cmds.ParseInputPort(c.Args[0])
	if err != nil {
		c.Err(err)
		return 0, false
	}
	return port, true
}

var (
	// InitCmd configures a port for digital sensors.
	InitCmd = ishell.Cmd{
		Name:    "i2c.init",
		Aliases: []string{},
		Help:    "PORT(1..4)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			port, ok := parsePort(c, "PORT", 1)
			if !ok {
				return
			}
			mode := cmds.SetInputMode{Port: port, Type: cmds.SensorLowSpeed9V, Mode: cmds.SensorModeRaw}
			if _, err := sh.DoCommand(c, mode); err == nil {
				sh.OK(c)
			}
		}),
	}

	// ReadCmd reads registers.
	ReadCmd = ishell.Cmd{
		Name:    "i2c.read",
		Aliases: []string{"i2cr"},
		Help:    "PORT(1..4) REG LEN [ADDR]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			port, ok := parsePort(c, "PORT REG LEN", 3)
			if !ok {
				return
			}
			req := cmds.I2CRead{Port: port}
			var err error
			if req.Register, err = ParseByte(c.Args[1]); err != nil {
				c.Err(fmt.Errorf("Invalid REG: %v", err))
				return
			}
			if req.Length, err = ParseByte(c.Args[2]); err != nil || req.Length > cmds.LSDataSize {
				c.Err(fmt.Errorf("Invalid LEN: %q", c.Args[2]))
				return
			}
			if len(c.Args) > 3 {
				if req.Address, err = ParseByte(c.Args[3]); err != nil {
					c.Err(fmt.Errorf("Invalid ADDR: %v", err))
					return
				}
			}
			data, err := Read(sh.ShellFrom(c), req)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]string{"data": hex.EncodeToString(data)}, hex.EncodeToString(data))
		}),
	}

	// WriteCmd writes registers.
	WriteCmd = ishell.Cmd{
		Name:    "i2c.write",
		Aliases: []string{"i2cw"},
		Help:    "PORT(1..4) REG HEXDATA [ADDR]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			port, ok := parsePort(c, "PORT REG HEXDATA", 3)
			if !ok {
				return
			}
			req := cmds.I2CWrite{Port: port}
			var err error
			if req.Register, err = ParseByte(c.Args[1]); err != nil {
				c.Err(fmt.Errorf("Invalid REG: %v", err))
				return
			}
			if req.Data, err = hex.DecodeString(c.Args[2]); err != nil || len(req.Data) > cmds.MaxI2CWriteSize {
				c.Err(fmt.Errorf("Invalid HEXDATA: %q", c.Args[2]))
				return
			}
			if len(c.Args) > 3 {
				if req.Address, err = ParseByte(c.Args[3]); err != nil {
					c.Err(fmt.Errorf("Invalid ADDR: %v", err))
					return
				}
			}
			if _, err := sh.DoCommand(c, req); err == nil {
				sh.OK(c)
			}
		}),
	}

	// IdentifyCmd reads the sensor identification.
	IdentifyCmd = ishell.Cmd{
		Name:    "i2c.id",
		Aliases: []string{},
		Help:    "PORT(1..4)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			port, ok := parsePort(c, "PORT", 1)
			if !ok {
				return
			}
			id, err := Identify(sh.ShellFrom(c), port)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, id, fmt.Sprintf("%s %s %s", id.Version, id.ProductID, id.SensorType))
		}),
	}
)

func init() {
	sh.AddCmds(&InitCmd, &ReadCmd, &WriteCmd, &IdentifyCmd)
}
