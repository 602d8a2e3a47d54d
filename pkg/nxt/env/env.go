// Package env provides the brick identity and configuration shared by
// the binaries.
package env

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/nxt.go/pkg/nxt/comm"
)

const appID = "nxt.go"

// MachineID retrieves an ID identifying the machine, hashed per
// application.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		if host, err := os.Hostname(); err == nil {
			return host
		}
		return "nxt"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// Config is the configuration of the binaries.
type Config struct {
	Port     string
	BaudRate int
	Type     string

	DeviceID          string
	MQTTURL           string
	HTTPAddr          string
	StatePath         string
	BatteryInterval   time.Duration
	KeepAliveInterval time.Duration
}

var defaultConfig = Config{
	Port:              "0",
	Type:              "usb",
	HTTPAddr:          ":8077",
	StatePath:         "nxtd.state",
	BatteryInterval:   30 * time.Second,
	KeepAliveInterval: 5 * time.Minute,
}

func init() {
	if val := os.Getenv("NXT_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val, err := strconv.Atoi(os.Getenv("NXT_BAUD_RATE")); err == nil {
		defaultConfig.BaudRate = val
	}
	if val := os.Getenv("NXT_TYPE"); val != "" {
		defaultConfig.Type = val
	}
	if val := os.Getenv("NXT_DEVICE_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
	if val := os.Getenv("NXT_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// SetupFlags sets up the connection flags.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "Serial port, a device name or a port number")
	fs.IntVar(&c.BaudRate, "baud", c.BaudRate, "Baud rate, default 115200")
	fs.StringVar(&c.Type, "type", c.Type, "Connection type: usb or bt")
}

// ConnConfig converts to comm.Config.
func (c *Config) ConnConfig() (comm.Config, error) {
	typ, err := comm.ParseConnectionType(c.Type)
	if err != nil {
		return comm.Config{}, err
	}
	return comm.Config{Port: c.Port, BaudRate: c.BaudRate, Type: typ}.Normalize(), nil
}

// ID returns DeviceID, defaulting to MachineID.
func (c *Config) ID() string {
	if c.DeviceID == "" {
		c.DeviceID = MachineID()
	}
	return c.DeviceID
}
