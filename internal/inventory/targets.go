package inventory

import (
	"fmt"
	"io"
	"os"
	"sync"

	"switchgraph/internal/config"
	"switchgraph/internal/transport/restconf"
)

// LookupEnvFunc reads a credential from the environment
type LookupEnvFunc func(key string) (string, bool)

// Resolver maps management IPs to RESTCONF targets using the transport
// defaults and per-device overrides. Devices missing from the inventory get
// the defaults.
type Resolver struct {
	defaults  config.TransportConfig
	lookupEnv LookupEnvFunc

	mu      sync.RWMutex
	devices map[string]config.DeviceConfig
}

// NewResolver creates a resolver. A nil lookupEnv reads the process
// environment.
func NewResolver(defaults config.TransportConfig, devices []config.DeviceConfig, lookupEnv LookupEnvFunc) *Resolver {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	r := &Resolver{defaults: defaults, lookupEnv: lookupEnv}
	r.Update(devices)
	return r
}

// Update replaces the per-device overrides
func (r *Resolver) Update(devices []config.DeviceConfig) {
	byIP := make(map[string]config.DeviceConfig, len(devices))
	for _, d := range devices {
		byIP[d.MgtIP] = d
	}
	r.mu.Lock()
	r.devices = byIP
	r.mu.Unlock()
}

// Target implements restconf.TargetFunc
func (r *Resolver) Target(deviceIP string) (restconf.Target, error) {
	r.mu.RLock()
	d := r.devices[deviceIP]
	r.mu.RUnlock()

	t := restconf.Target{
		Host:     deviceIP,
		Port:     r.defaults.Port,
		Scheme:   r.defaults.Scheme,
		Username: r.defaults.Username,
	}
	if d.Port != 0 {
		t.Port = d.Port
	}
	if d.Username != "" {
		t.Username = d.Username
	}

	passwordEnv := r.defaults.PasswordEnv
	if d.PasswordEnv != "" {
		passwordEnv = d.PasswordEnv
	}
	if passwordEnv != "" {
		password, ok := r.lookupEnv(passwordEnv)
		if !ok {
			return restconf.Target{}, fmt.Errorf("password variable %s is not set", passwordEnv)
		}
		t.Password = password
	}
	return t, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewClient builds the RESTCONF client for cfg. The returned closer shuts
// down the SSH jump session, if one is configured.
func NewClient(cfg config.TransportConfig, r *Resolver) (*restconf.Client, io.Closer, error) {
	clientCfg := restconf.Config{
		Timeout:            cfg.Timeout.Duration(),
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	var closer io.Closer = nopCloser{}
	if j := cfg.SSHJump; j != nil {
		jumpCfg := restconf.JumpConfig{
			Host:           j.Host,
			Port:           j.Port,
			User:           j.User,
			KeyPath:        j.KeyPath,
			KnownHostsPath: j.KnownHostsPath,
			Timeout:        j.Timeout.Duration(),
		}
		if j.PasswordEnv != "" {
			jumpCfg.Password, _ = r.lookupEnv(j.PasswordEnv)
		}
		if j.PassphraseEnv != "" {
			jumpCfg.Passphrase, _ = r.lookupEnv(j.PassphraseEnv)
		}
		if jumpCfg.Password == "" && jumpCfg.KeyPath == "" {
			return nil, nil, fmt.Errorf("ssh jump %s: no key_path or password configured", j.Host)
		}

		jump := restconf.NewJump(jumpCfg)
		clientCfg.Dial = jump.DialContext
		closer = jump
	}

	return restconf.NewClient(clientCfg, r.Target), closer, nil
}
