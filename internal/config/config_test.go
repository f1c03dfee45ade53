package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
)

const sampleConfig = `
database:
  path: /var/lib/switchgraph/graph.db
transport:
  port: 8443
  timeout: 15s
  username: admin
  password_env: SWITCHGRAPH_PASSWORD
  ssh_jump:
    host: bastion.example.net
    user: ops
    key_path: ~/.ssh/id_ed25519
discovery:
  interval: 5m
  kinds: [vlans, interface]
devices:
  - mgt_ip: 10.0.0.1
    name: leaf1
  - mgt_ip: 10.0.0.2
    name: leaf2
    port: 443
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/switchgraph/graph.db", cfg.Database.Path)
	assert.Equal(t, "https", cfg.Transport.Scheme)
	assert.Equal(t, 8443, cfg.Transport.Port)
	assert.Equal(t, 15*time.Second, cfg.Transport.Timeout.Duration())
	require.NotNil(t, cfg.Transport.SSHJump)
	assert.Equal(t, 22, cfg.Transport.SSHJump.Port)
	assert.Equal(t, 5*time.Minute, cfg.Discovery.Interval.Duration())
	assert.Equal(t, DefaultMaxConcurrent, cfg.Discovery.MaxConcurrent)
	require.Len(t, cfg.Devices, 2)

	kinds, err := cfg.EnabledKinds()
	require.NoError(t, err)
	assert.Equal(t, []domain.Kind{domain.KindInterface, domain.KindVLAN}, kinds)

	d, ok := cfg.Device("10.0.0.2")
	require.True(t, ok)
	assert.Equal(t, "leaf2", d.Name)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultPort, cfg.Transport.Port)
	assert.Equal(t, DefaultResyncTimeout, cfg.Discovery.ResyncTimeout.Duration())
	assert.Zero(t, cfg.Discovery.Interval, "scheduler is off unless configured")
	assert.NoError(t, cfg.Validate())

	kinds, err := cfg.EnabledKinds()
	require.NoError(t, err)
	assert.Equal(t, domain.AllKinds(), kinds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad ip", "devices: [{mgt_ip: leaf1}]"},
		{"duplicate ip", "devices: [{mgt_ip: 10.0.0.1}, {mgt_ip: 10.0.0.1}]"},
		{"device port", "devices: [{mgt_ip: 10.0.0.1, port: 70000}]"},
		{"unknown kind", "discovery: {kinds: [routes]}"},
		{"scheme", "transport: {scheme: ftp}"},
		{"log format", "log: {format: xml}"},
		{"jump without user", "transport: {ssh_jump: {host: bastion}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, serrors.ErrValidation)
		})
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("discovery: {interval: often}"))
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Discovery.Interval = Duration(10 * time.Minute)
	cfg.Devices = []DeviceConfig{{MgtIP: "10.0.0.1", Name: "leaf1"}}
	require.NoError(t, cfg.Save(path))

	loaded, loadedPath, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, loadedPath)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromPathReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport: {password_env: SG_TEST_PASSWORD}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(`SG_TEST_PASSWORD="from-dotenv"`), 0600))

	os.Unsetenv("SG_TEST_PASSWORD")
	// godotenv sets the variable directly, bypassing t.Setenv cleanup
	t.Cleanup(func() { os.Unsetenv("SG_TEST_PASSWORD") })

	cfg, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", os.Getenv(cfg.Transport.PasswordEnv))
}

func TestFindConfigPath(t *testing.T) {
	t.Run("env var wins", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "explicit.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1"), 0600))
		t.Setenv(EnvConfigPath, path)

		assert.Equal(t, path, FindConfigPath())
	})

	t.Run("xdg config home", func(t *testing.T) {
		chdir(t, t.TempDir())
		xdg := t.TempDir()
		t.Setenv(EnvConfigPath, "")
		t.Setenv("XDG_CONFIG_HOME", xdg)
		t.Setenv("HOME", t.TempDir())

		path := filepath.Join(xdg, ConfigDirName, "config.yaml")
		require.NoError(t, EnsureConfigDir(path))
		require.NoError(t, os.WriteFile(path, []byte("version: 1"), 0600))

		assert.Equal(t, path, FindConfigPath())
	})

	t.Run("working directory before xdg", func(t *testing.T) {
		wd := t.TempDir()
		chdir(t, wd)
		t.Setenv(EnvConfigPath, "")
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		require.NoError(t, os.WriteFile(ConfigFileName, []byte("version: 1"), 0600))

		assert.Equal(t, filepath.Join(wd, ConfigFileName), FindConfigPath())
	})
}

func TestSearchPathsOrder(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/explicit.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/ops")

	assert.Equal(t, []string{
		"/tmp/explicit.yaml",
		ConfigFileName,
		"/xdg/switchgraph/config.yaml",
		"/home/ops/.config/switchgraph/config.yaml",
		"/etc/switchgraph/config.yaml",
	}, SearchPaths())
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
