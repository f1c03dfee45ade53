package restconf

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// writeKey writes a fresh ed25519 private key in OpenSSH format
func writeKey(t *testing.T, dir, passphrase string) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase != "" {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	} else {
		block, err = ssh.MarshalPrivateKey(priv, "")
	}
	require.NoError(t, err)

	path := filepath.Join(dir, "id_"+passphrase+"ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func hostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestBuildSSHConfigAuth(t *testing.T) {
	dir := t.TempDir()
	plainKey := writeKey(t, dir, "")
	lockedKey := writeKey(t, dir, "secret")

	tests := []struct {
		name      string
		cfg       JumpConfig
		wantAuth  int
		wantError string
	}{
		{"password", JumpConfig{User: "admin", Password: "pw"}, 1, ""},
		{"key", JumpConfig{User: "admin", KeyPath: plainKey}, 1, ""},
		{"key and password", JumpConfig{User: "admin", KeyPath: plainKey, Password: "pw"}, 2, ""},
		{"encrypted key", JumpConfig{User: "admin", KeyPath: lockedKey, Passphrase: "secret"}, 1, ""},
		{"wrong passphrase", JumpConfig{User: "admin", KeyPath: lockedKey, Passphrase: "nope"}, 0, "failed to parse private key"},
		{"encrypted key without passphrase", JumpConfig{User: "admin", KeyPath: lockedKey}, 0, "failed to parse private key"},
		{"missing key file", JumpConfig{User: "admin", KeyPath: filepath.Join(dir, "absent")}, 0, "failed to read private key"},
		{"no credentials", JumpConfig{User: "admin"}, 0, "key_path or password"},
		{"no user", JumpConfig{Password: "pw"}, 0, "user is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLog(t)
			cfg, err := NewJump(tt.cfg).buildSSHConfig()
			if tt.wantError != "" {
				assert.ErrorContains(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin", cfg.User)
			assert.Len(t, cfg.Auth, tt.wantAuth)
			assert.Equal(t, defaultJumpTimeout, cfg.Timeout)
		})
	}
}

func TestBuildSSHConfigHostKeys(t *testing.T) {
	const host = "192.0.2.10:22"
	remote := &net.TCPAddr{IP: net.ParseIP("192.0.2.10"), Port: 22}
	known, other := hostKey(t), hostKey(t)

	knownHosts := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(knownHosts, []byte(knownhosts.Line([]string{host}, known)+"\n"), 0o600))

	t.Run("known_hosts verifies the bastion", func(t *testing.T) {
		logs := captureLog(t)
		cfg, err := NewJump(JumpConfig{User: "admin", Password: "pw", KnownHostsPath: knownHosts}).buildSSHConfig()
		require.NoError(t, err)

		assert.NoError(t, cfg.HostKeyCallback(host, remote, known))

		err = cfg.HostKeyCallback(host, remote, other)
		var keyErr *knownhosts.KeyError
		require.True(t, errors.As(err, &keyErr), "got %v", err)
		assert.NotEmpty(t, keyErr.Want, "a changed key is reported against the recorded one")
		assert.Empty(t, logs.String())
	})

	t.Run("missing known_hosts file", func(t *testing.T) {
		captureLog(t)
		_, err := NewJump(JumpConfig{
			User:           "admin",
			Password:       "pw",
			KnownHostsPath: filepath.Join(t.TempDir(), "absent"),
		}).buildSSHConfig()
		assert.ErrorContains(t, err, "failed to load known hosts")
	})

	t.Run("without known_hosts any key is accepted with a warning", func(t *testing.T) {
		logs := captureLog(t)
		cfg, err := NewJump(JumpConfig{Host: "bastion", User: "admin", Password: "pw"}).buildSSHConfig()
		require.NoError(t, err)

		assert.NoError(t, cfg.HostKeyCallback(host, remote, known))
		assert.NoError(t, cfg.HostKeyCallback(host, remote, other))
		assert.Contains(t, logs.String(), `"level":"warn"`)
		assert.Contains(t, logs.String(), "not verified")
		assert.Contains(t, logs.String(), `"jump_host":"bastion"`)
	})
}
