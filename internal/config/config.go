// Package config loads the switchgraph configuration file.
//
// The file holds connection settings and the device inventory. Everything
// discovered from the devices lives in the database and can be rebuilt by a
// discovery pass.
//
// Config file locations are listed by SearchPaths. A .env file next to the
// config file, or in the working directory, is loaded first so credentials
// can be kept out of the YAML.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
)

const (
	DefaultDatabasePath     = "./switchgraph.db"
	DefaultScheme           = "https"
	DefaultPort             = 443
	DefaultTimeout          = 30 * time.Second
	DefaultDiscoveryTimeout = 2 * time.Minute
	DefaultResyncTimeout    = 60 * time.Second
	DefaultMaxConcurrent    = 8
	DefaultHTTPAddr         = ":8080"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		loadDotEnv("")
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	loadDotEnv(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes and validates a config document
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads dir/.env and ./.env if present. Variables already set in
// the environment win.
func loadDotEnv(dir string) {
	if dir != "" {
		envFile := filepath.Join(dir, ".env")
		if fileExists(envFile) {
			if err := godotenv.Load(envFile); err != nil {
				log.Warn().Err(err).Str("file", envFile).Msg("Failed to load .env file")
			} else {
				log.Debug().Str("file", envFile).Msg("Loaded .env file")
			}
		}
	}
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env from current directory")
	}
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Transport.Scheme == "" {
		c.Transport.Scheme = DefaultScheme
	}
	if c.Transport.Port == 0 {
		c.Transport.Port = DefaultPort
	}
	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = Duration(DefaultTimeout)
	}
	if j := c.Transport.SSHJump; j != nil && j.Port == 0 {
		j.Port = 22
	}

	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = Duration(DefaultDiscoveryTimeout)
	}
	if c.Discovery.ResyncTimeout == 0 {
		c.Discovery.ResyncTimeout = Duration(DefaultResyncTimeout)
	}
	if c.Discovery.MaxConcurrent <= 0 {
		c.Discovery.MaxConcurrent = DefaultMaxConcurrent
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
}

// Validate rejects configurations that cannot be run
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "auto", "console", "json":
	default:
		return serrors.Invalid("config", "log.format must be auto, console or json, got %q", c.Log.Format)
	}

	switch c.Transport.Scheme {
	case "http", "https":
	default:
		return serrors.Invalid("config", "transport.scheme must be http or https, got %q", c.Transport.Scheme)
	}
	if c.Transport.Port < 1 || c.Transport.Port > 65535 {
		return serrors.Invalid("config", "transport.port %d out of range", c.Transport.Port)
	}
	if j := c.Transport.SSHJump; j != nil {
		if j.Host == "" || j.User == "" {
			return serrors.Invalid("config", "transport.ssh_jump needs host and user")
		}
	}

	if _, err := c.EnabledKinds(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if net.ParseIP(d.MgtIP) == nil {
			return serrors.Invalid("config", "devices[%d]: invalid mgt_ip %q", i, d.MgtIP)
		}
		if seen[d.MgtIP] {
			return serrors.Invalid("config", "devices[%d]: duplicate mgt_ip %s", i, d.MgtIP)
		}
		seen[d.MgtIP] = true
		if d.Port < 0 || d.Port > 65535 {
			return serrors.Invalid("config", "devices[%d]: port %d out of range", i, d.Port)
		}
	}
	return nil
}

// EnabledKinds returns the kinds discovery runs for, in discovery order.
// An empty list enables every kind.
func (c *Config) EnabledKinds() ([]domain.Kind, error) {
	if len(c.Discovery.Kinds) == 0 {
		return domain.AllKinds(), nil
	}

	enabled := make(map[domain.Kind]bool, len(c.Discovery.Kinds))
	for _, s := range c.Discovery.Kinds {
		k, err := domain.ParseKind(s)
		if err != nil {
			return nil, serrors.Invalid("config", "discovery.kinds: %v", err)
		}
		enabled[k] = true
	}

	var kinds []domain.Kind
	for _, k := range domain.AllKinds() {
		if enabled[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// Device returns the inventory entry of mgtIP
func (c *Config) Device(mgtIP string) (DeviceConfig, bool) {
	for _, d := range c.Devices {
		if d.MgtIP == mgtIP {
			return d, true
		}
	}
	return DeviceConfig{}, false
}
