package naming

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

// TunnelConfig describes an SSH bastion through which name servers are reached
type TunnelConfig struct {
	Address    string
	User       string
	KeyFile    string
	Passphrase string
	Password   string
	Timeout    time.Duration
}

// Tunnel forwards HTTP traffic to name servers over an SSH connection
type Tunnel struct {
	client *ssh.Client
}

// DialTunnel connects to the bastion described by cfg
func DialTunnel(ctx context.Context, cfg TunnelConfig) (*Tunnel, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	config, err := buildSSHConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build SSH config: %w", err)
	}

	addr := cfg.Address
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to dial tunnel %s: %v", ErrUnreachable, addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}

	return &Tunnel{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

// HTTPClient returns an HTTP client whose connections are opened through the tunnel
func (t *Tunnel) HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return t.client.DialContext(ctx, network, addr)
			},
		},
	}
}

// Close shuts the SSH connection down
func (t *Tunnel) Close() error {
	return t.client.Close()
}

func buildSSHConfig(cfg TunnelConfig) (*ssh.ClientConfig, error) {
	if cfg.User == "" {
		return nil, fmt.Errorf("tunnel user not set")
	}

	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		keyData, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		var signer ssh.Signer
		if cfg.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(cfg.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyData)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("tunnel needs a key file or a password")
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cfg.Timeout,
	}, nil
}
