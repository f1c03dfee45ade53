package inventory

import (
	"context"
	"testing"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgraph/internal/config"
	"switchgraph/internal/repository/sqlite"
	"switchgraph/internal/transport/restconf"
)

func env(vars map[string]string) LookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestSyncRegistersInventory(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := config.DefaultConfig()
	cfg.Devices = []config.DeviceConfig{
		{MgtIP: "10.0.0.1", Name: "leaf1", Platform: "sonic"},
		{MgtIP: "10.0.0.2", Name: "leaf2"},
	}
	summary, err := Sync(ctx, repo, cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10.0.0.1", "10.0.0.2"}, summary.Added)

	cfg.Devices = cfg.Devices[:1]
	summary, err = Sync(ctx, repo, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.2"}, summary.Removed)

	devices, err := repo.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "sonic", devices[0].Platform)
}

func TestResolverTarget(t *testing.T) {
	defaults := config.TransportConfig{
		Scheme:      "https",
		Port:        443,
		Username:    "admin",
		PasswordEnv: "SG_PASSWORD",
	}
	devices := []config.DeviceConfig{
		{MgtIP: "10.0.0.2", Port: 8443, Username: "ops", PasswordEnv: "LEAF2_PASSWORD"},
	}
	r := NewResolver(defaults, devices, env(map[string]string{
		"SG_PASSWORD":    "secret",
		"LEAF2_PASSWORD": "other",
	}))

	tests := []struct {
		name string
		ip   string
		want restconf.Target
	}{
		{"defaults", "10.0.0.1", restconf.Target{Host: "10.0.0.1", Port: 443, Scheme: "https", Username: "admin", Password: "secret"}},
		{"overrides", "10.0.0.2", restconf.Target{Host: "10.0.0.2", Port: 8443, Scheme: "https", Username: "ops", Password: "other"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Target(tt.ip)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	r.Update(nil)
	got, err := r.Target("10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, 443, got.Port, "overrides are dropped after an update")
}

func TestResolverMissingPassword(t *testing.T) {
	r := NewResolver(config.TransportConfig{PasswordEnv: "UNSET_PASSWORD"}, nil, env(nil))
	_, err := r.Target("10.0.0.1")
	assert.ErrorContains(t, err, "UNSET_PASSWORD")
}

func TestNewClientRequiresJumpCredentials(t *testing.T) {
	cfg := config.DefaultConfig().Transport
	cfg.SSHJump = &config.SSHJumpConfig{Host: "bastion", User: "ops"}

	_, _, err := NewClient(cfg, NewResolver(cfg, nil, env(nil)))
	assert.Error(t, err)

	cfg.SSHJump.PasswordEnv = "JUMP_PASSWORD"
	client, closer, err := NewClient(cfg, NewResolver(cfg, nil, env(map[string]string{"JUMP_PASSWORD": "pw"})))
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NoError(t, closer.Close())
}

func TestScannerCandidates(t *testing.T) {
	s := NewScanner(WithPort(8443), WithScanTimeout(time.Minute))

	result := &nmap.Run{
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.10", AddrType: "ipv4"}},
				Hostnames: []nmap.Hostname{{Name: "leaf10.dc1.example.net"}},
				Status:    nmap.Status{State: "up"},
				Ports:     []nmap.Port{{ID: 8443, Protocol: "tcp", State: nmap.State{State: "open"}, Service: nmap.Service{Name: "https-alt"}}},
			},
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.9", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports:     []nmap.Port{{ID: 8443, Protocol: "tcp", State: nmap.State{State: "open"}}},
			},
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.11", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports:     []nmap.Port{{ID: 8443, Protocol: "tcp", State: nmap.State{State: "filtered"}}},
			},
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.12", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "down"},
			},
		},
	}

	got := s.candidates(result)
	assert.Equal(t, []Candidate{
		{MgtIP: "10.0.0.9", Port: 8443},
		{MgtIP: "10.0.0.10", Hostname: "leaf10.dc1.example.net", Port: 8443, Service: "https-alt"},
	}, got)

	assert.Equal(t, config.DeviceConfig{MgtIP: "10.0.0.10", Name: "leaf10", Port: 8443}, got[1].DeviceConfig(443))
	assert.Equal(t, config.DeviceConfig{MgtIP: "10.0.0.9"}, got[0].DeviceConfig(8443))

	assert.Nil(t, s.candidates(nil))
}

func TestExpandTargets(t *testing.T) {
	got, err := expandTargets([]string{"10.0.0.7/24", " 10.0.1.1 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/24", "10.0.1.1"}, got)

	_, err = expandTargets([]string{"10.0.0.0/33"})
	assert.Error(t, err)
}
