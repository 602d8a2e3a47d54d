package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robotalks/nxt.go/pkg/framework"
	"github.com/robotalks/nxt.go/pkg/nxt/comm/serial"
	"github.com/robotalks/nxt.go/pkg/nxt/daemon"
	"github.com/robotalks/nxt.go/pkg/nxt/env"
)

//go-build: CGO_ENABLED=0

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "nxtd",
		Short: "NXT brick service",
		Long: `nxtd keeps a connection to a LEGO NXT brick over USB or Bluetooth serial,
polls the battery level, keeps the brick awake, and exposes it over MQTT
and HTTP. Every flag can be set by an environment variable NXT_<FLAG>,
e.g. NXT_MQTT_URL, or in a config file.`,
		SilenceUsage: true,
		PreRunE:      loadConfig,
		RunE:         run,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	conf := env.Default()
	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("port", conf.Port, "Serial port, a device name or a port number")
	flags.Int("baud", conf.BaudRate, "Baud rate, default 115200")
	flags.String("type", conf.Type, "Connection type: usb or bt")
	flags.String("device-id", conf.DeviceID, "Device ID in MQTT topics, default machine ID")
	flags.String("mqtt-url", conf.MQTTURL, "MQTT broker URL, e.g. mqtt://localhost:1883/nxt/")
	flags.String("http-addr", conf.HTTPAddr, "HTTP listen address, empty to disable")
	flags.String("state", conf.StatePath, "State file persisting timing statistics")
	flags.Duration("battery-interval", conf.BatteryInterval, "Battery polling interval, 0 to disable")
	flags.Duration("keepalive-interval", conf.KeepAliveInterval, "Keep alive interval, 0 to disable")
	flags.AddGoFlagSet(flag.CommandLine)
}

// initConfig reads env files, environment variables and the config file.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("nxt")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			glog.Exitf("read config %s: %v", configFile, err)
		}
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	conf := env.Default()
	conf.Port = viper.GetString("port")
	conf.BaudRate = viper.GetInt("baud")
	conf.Type = viper.GetString("type")
	conf.DeviceID = viper.GetString("device-id")
	conf.MQTTURL = viper.GetString("mqtt-url")
	conf.HTTPAddr = viper.GetString("http-addr")
	conf.StatePath = viper.GetString("state")
	conf.BatteryInterval = viper.GetDuration("battery-interval")
	conf.KeepAliveInterval = viper.GetDuration("keepalive-interval")
	if conf.Port == "" {
		return fmt.Errorf("port required")
	}
	return nil
}

func run(*cobra.Command, []string) error {
	defer glog.Flush()
	d, err := daemon.New(env.Default(), serial.Opener{})
	if err != nil {
		return err
	}
	glog.Infof("nxtd %s on %s", env.Default().ID(), env.Default().Port)
	return framework.NewRunner().HandleSignals().Go(d).Wait()
}

func main() {
	// glog expects the go flags parsed, the values are set by cobra.
	flag.CommandLine.Parse(nil)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
