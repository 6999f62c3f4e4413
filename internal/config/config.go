// Package config loads the station configuration: link endpoints, the
// vessel table and the optional peripheral services.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/viper"

	"shorelink/internal/protocol"
)

// VesselEntry binds an operator-facing vessel index to a link node code.
type VesselEntry struct {
	Index int    `mapstructure:"index"`
	Code  uint16 `mapstructure:"code"`
}

// CommandConfig addresses the unicast command downlink.
type CommandConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TelemetryConfig addresses the multicast telemetry uplink. Interface may
// name the NIC to join on; empty lets the kernel pick.
type TelemetryConfig struct {
	StatusGroup   string `mapstructure:"statusGroup"`
	ContactsGroup string `mapstructure:"contactsGroup"`
	Port          int    `mapstructure:"port"`
	Interface     string `mapstructure:"interface"`
}

// RelayConfig controls the WebSocket re-publisher. An empty listen address
// disables it.
type RelayConfig struct {
	Listen string `mapstructure:"listen"`
}

// RecorderConfig controls the track recorder. An empty path disables it.
type RecorderConfig struct {
	Path string `mapstructure:"path"`
}

// SerialConfig controls the direct vehicle-controller bridge. An empty
// device disables it.
type SerialConfig struct {
	Device string `mapstructure:"device"`
	Baud   int    `mapstructure:"baud"`
}

// Config holds everything the station needs to run.
type Config struct {
	LogLevel  string          `mapstructure:"logLevel"`
	Command   CommandConfig   `mapstructure:"command"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Serial    SerialConfig    `mapstructure:"serial"`
	Vessels   []VesselEntry   `mapstructure:"vessels"`
}

// Load reads shorelink.yaml from dir and fills everything unset from the
// defaults below. A missing file is fine, defaults apply; a malformed file
// is an error.
func Load(dir string) (*Config, error) {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("command.host", "192.168.2.2")
	viper.SetDefault("command.port", 0x6198)

	viper.SetDefault("telemetry.statusGroup", "226.100.100.101")
	viper.SetDefault("telemetry.contactsGroup", "226.100.100.102")
	viper.SetDefault("telemetry.port", 0x6688)
	viper.SetDefault("telemetry.interface", "")

	viper.SetDefault("relay.listen", "")
	viper.SetDefault("recorder.path", "")
	viper.SetDefault("serial.device", "")
	viper.SetDefault("serial.baud", 115200)

	viper.SetConfigName("shorelink")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if len(cfg.Vessels) == 0 {
		for i := 1; i <= 5; i++ {
			cfg.Vessels = append(cfg.Vessels, VesselEntry{Index: i, Code: uint16(0x5000 + i)})
		}
	}
	return &cfg, nil
}

// CommandAddr returns the command downlink destination as host:port.
func (c *Config) CommandAddr() string {
	return net.JoinHostPort(c.Command.Host, strconv.Itoa(c.Command.Port))
}

// Codebook builds the protocol address table in declared order, so the
// first configured vessel is the fallback target.
func (c *Config) Codebook() *protocol.Codebook {
	cb := protocol.NewCodebook()
	for _, v := range c.Vessels {
		cb.Add(v.Index, v.Code)
	}
	return cb
}

// VesselNames maps node codes to operator-facing display names.
func (c *Config) VesselNames() map[uint16]string {
	names := make(map[uint16]string, len(c.Vessels))
	for _, v := range c.Vessels {
		names[v.Code] = fmt.Sprintf("无人艇 %d号", v.Index)
	}
	return names
}
