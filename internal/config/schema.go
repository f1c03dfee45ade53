package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the switchgraph configuration file
type Config struct {
	Version   int             `yaml:"version"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	HTTP      HTTPConfig      `yaml:"http"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// Devices is the inventory synced into the device registry
	Devices []DeviceConfig `yaml:"devices,omitempty"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig selects log format and level
type LogConfig struct {
	Format string `yaml:"format"` // auto, console or json
	Level  string `yaml:"level"`
}

// TransportConfig holds the RESTCONF connection defaults for every device
type TransportConfig struct {
	Scheme             string   `yaml:"scheme"`
	Port               int      `yaml:"port"`
	Timeout            Duration `yaml:"timeout"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify,omitempty"`
	Username           string   `yaml:"username"`
	// PasswordEnv names the environment variable holding the password.
	// The password itself never lives in the config file.
	PasswordEnv string `yaml:"password_env"`

	SSHJump *SSHJumpConfig `yaml:"ssh_jump,omitempty"`
}

// SSHJumpConfig describes a bastion RESTCONF connections are tunnelled through
type SSHJumpConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port,omitempty"`
	User           string   `yaml:"user"`
	KeyPath        string   `yaml:"key_path,omitempty"`
	PasswordEnv    string   `yaml:"password_env,omitempty"`
	PassphraseEnv  string   `yaml:"passphrase_env,omitempty"`
	KnownHostsPath string   `yaml:"known_hosts_path,omitempty"`
	Timeout        Duration `yaml:"timeout,omitempty"`
}

// DiscoveryConfig controls scheduled and on-demand discovery
type DiscoveryConfig struct {
	// Interval between scheduled passes. Zero disables the scheduler.
	Interval      Duration `yaml:"interval"`
	Timeout       Duration `yaml:"timeout"`
	ResyncTimeout Duration `yaml:"resync_timeout"`
	MaxConcurrent int      `yaml:"max_concurrent"`
	// Kinds enabled for discovery. Empty means all.
	Kinds []string `yaml:"kinds,omitempty"`
}

// HTTPConfig holds API server settings
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MetricsConfig holds Prometheus endpoint settings. An empty Addr serves
// /metrics on the API server.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DeviceConfig is one inventory entry
type DeviceConfig struct {
	MgtIP    string `yaml:"mgt_ip"`
	Name     string `yaml:"name,omitempty"`
	Platform string `yaml:"platform,omitempty"`

	// Per-device transport overrides
	Port        int    `yaml:"port,omitempty"`
	Username    string `yaml:"username,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
