package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "192.168.2.2", cfg.Command.Host)
	assert.Equal(t, 0x6198, cfg.Command.Port)
	assert.Equal(t, "192.168.2.2:24984", cfg.CommandAddr())
	assert.Equal(t, "226.100.100.101", cfg.Telemetry.StatusGroup)
	assert.Equal(t, "226.100.100.102", cfg.Telemetry.ContactsGroup)
	assert.Equal(t, 0x6688, cfg.Telemetry.Port)
	assert.Equal(t, "", cfg.Relay.Listen)
	assert.Equal(t, "", cfg.Recorder.Path)
	assert.Equal(t, "", cfg.Serial.Device)
	assert.Equal(t, 115200, cfg.Serial.Baud)

	require.Len(t, cfg.Vessels, 5)
	assert.Equal(t, VesselEntry{Index: 1, Code: 0x5001}, cfg.Vessels[0])
	assert.Equal(t, VesselEntry{Index: 5, Code: 0x5005}, cfg.Vessels[4])
}

func TestLoad_FileOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	yml := `
logLevel: debug
command:
  host: 10.1.1.20
  port: 9000
telemetry:
  interface: eth1
relay:
  listen: :8080
recorder:
  path: /var/lib/shorelink/track.db
serial:
  device: /dev/ttyUSB0
  baud: 57600
vessels:
  - index: 3
    code: 0x5103
  - index: 1
    code: 0x5101
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shorelink.yaml"), []byte(yml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "10.1.1.20:9000", cfg.CommandAddr())
	assert.Equal(t, "eth1", cfg.Telemetry.Interface)
	assert.Equal(t, ":8080", cfg.Relay.Listen)
	assert.Equal(t, "/var/lib/shorelink/track.db", cfg.Recorder.Path)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
	assert.Equal(t, 57600, cfg.Serial.Baud)

	// Declared vessel order survives into the codebook, so vessel 3 is the
	// fallback here.
	require.Len(t, cfg.Vessels, 2)
	cb := cfg.Codebook()
	assert.Equal(t, uint16(0x5103), cb.Resolve(3))
	assert.Equal(t, uint16(0x5101), cb.Resolve(1))
	assert.Equal(t, uint16(0x5103), cb.Resolve(9))
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shorelink.yaml"), []byte("command: ["), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestCodebook_DefaultTable(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	cb := cfg.Codebook()
	for i := 1; i <= 5; i++ {
		assert.Equal(t, uint16(0x5000+i), cb.Resolve(i))
	}
	assert.Equal(t, uint16(0x5001), cb.Resolve(0))
	assert.Equal(t, uint16(0x5001), cb.Resolve(42))
}

func TestVesselNames(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	names := cfg.VesselNames()
	assert.Equal(t, "无人艇 1号", names[0x5001])
	assert.Equal(t, "无人艇 5号", names[0x5005])
	assert.NotContains(t, names, uint16(0x9999))
}
