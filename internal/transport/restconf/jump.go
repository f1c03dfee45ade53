package restconf

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultJumpTimeout = 10 * time.Second

// JumpConfig describes an SSH bastion that RESTCONF connections are
// tunnelled through
type JumpConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	KeyPath        string
	Passphrase     string
	KnownHostsPath string
	Timeout        time.Duration
}

// Jump dials device connections through a shared SSH client. The client is
// established lazily and re-established after it breaks.
type Jump struct {
	cfg JumpConfig

	mu     sync.Mutex
	client *ssh.Client
}

// NewJump creates a jump dialer
func NewJump(cfg JumpConfig) *Jump {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultJumpTimeout
	}
	return &Jump{cfg: cfg}
}

// DialContext opens a connection to addr from the bastion
func (j *Jump) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	client, err := j.connect(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := client.DialContext(ctx, network, addr)
	if err != nil {
		// A dead session fails every dial; drop it so the next call reconnects.
		j.reset(client)
		return nil, fmt.Errorf("failed to dial %s via %s: %w", addr, j.cfg.Host, err)
	}
	return conn, nil
}

// Close closes the SSH session
func (j *Jump) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.client == nil {
		return nil
	}
	err := j.client.Close()
	j.client = nil
	return err
}

func (j *Jump) connect(ctx context.Context) (*ssh.Client, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.client != nil {
		return j.client, nil
	}

	config, err := j.buildSSHConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build SSH config: %w", err)
	}

	addr := net.JoinHostPort(j.cfg.Host, strconv.Itoa(j.cfg.Port))
	dialer := &net.Dialer{Timeout: j.cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial jump host: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}

	j.client = ssh.NewClient(sshConn, chans, reqs)
	log.Info().Str("jump_host", addr).Msg("SSH tunnel established")
	return j.client, nil
}

func (j *Jump) reset(client *ssh.Client) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.client == client {
		j.client.Close()
		j.client = nil
	}
}

// buildSSHConfig creates an SSH client config from key or password auth
func (j *Jump) buildSSHConfig() (*ssh.ClientConfig, error) {
	if j.cfg.User == "" {
		return nil, fmt.Errorf("jump host user is required")
	}

	var auth []ssh.AuthMethod
	if j.cfg.KeyPath != "" {
		keyData, err := os.ReadFile(j.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}

		var signer ssh.Signer
		if j.cfg.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(j.cfg.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyData)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if j.cfg.Password != "" {
		auth = append(auth, ssh.Password(j.cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("jump host needs a key_path or password")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if j.cfg.KnownHostsPath != "" {
		cb, err := knownhosts.New(j.cfg.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		log.Warn().Str("jump_host", j.cfg.Host).Msg("No known_hosts file configured, jump host key is not verified")
	}

	return &ssh.ClientConfig{
		User:            j.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         j.cfg.Timeout,
	}, nil
}
