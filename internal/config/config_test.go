package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./cameramfd_logs", viper.GetString("logsDir"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "postgres", viper.GetString("db.username"))
	assert.Equal(t, "postgres", viper.GetString("db.password"))
	assert.Equal(t, "camera_mfd", viper.GetString("db.database"))
	assert.Equal(t, "disable", viper.GetString("db.sslmode"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "Config/CameraMFD", viper.GetString("scenario.configDir"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestTypedGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("scenario.configDir", "Config/Cams")
	viper.Set("render.width", 640)
	viper.Set("render.enabled", true)

	assert.Equal(t, "Config/Cams", GetString("scenario.configDir"))
	assert.Equal(t, 640, GetInt("render.width"))
	assert.True(t, GetBool("render.enabled"))
	assert.Zero(t, GetInt("render.missing"))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./camera_snapshots", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, "", cfg.SQLite.Path)
	assert.Equal(t, "./camera_snapshots.db", cfg.SQLite.DumpPath)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "path": "/tmp/cams.db", "dumpInterval": "10m" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/cams.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "camera-mfd", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`)))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetInfluxConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"influx": { "enabled": true, "host": "metrics", "protocol": "https", "bucket": "poses" }
	}`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "https://metrics:8086", ic.URL)
	assert.Equal(t, "camera-mfd", ic.Org)
	assert.Equal(t, "poses", ic.Bucket)
	assert.Equal(t, "./influx_backup", ic.BackupDir)
}

func TestGetRenderAndScenarioConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"render": { "enabled": true, "url": "ws://viewer:9000/ws", "width": 1024 },
		"scenario": { "configDir": "/opt/orbiter/Config/CameraMFD" }
	}`)))

	rc := GetRenderConfig()
	assert.True(t, rc.Enabled)
	assert.Equal(t, "ws://viewer:9000/ws", rc.URL)
	assert.Equal(t, 1024, rc.Width)
	assert.Equal(t, 512, rc.Height)

	assert.Equal(t, "/opt/orbiter/Config/CameraMFD", GetScenarioConfig().ConfigDir)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("CAMERA_MFD_ADDON_DIR", "/opt/orbiter/Modules/CameraMFD")
	t.Setenv("CAMERA_MFD_CONFIG_DIR", "")
	t.Setenv("CAMERA_MFD_LOG_LEVEL", "debug")

	e, err := ParseEnv()
	require.NoError(t, err)
	assert.Equal(t, "/opt/orbiter/Modules/CameraMFD", e.AddonDir)
	assert.Equal(t, "/opt/orbiter/Modules/CameraMFD", e.ConfigDir)
	assert.Equal(t, "debug", e.LogLevel)

	t.Setenv("CAMERA_MFD_CONFIG_DIR", "/etc/camera_mfd")
	e, err = ParseEnv()
	require.NoError(t, err)
	assert.Equal(t, "/etc/camera_mfd", e.ConfigDir)
}
