package naming

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// bastion is a loopback SSH server that accepts direct-tcpip channels
type bastion struct {
	ln  net.Listener
	cfg *ssh.ServerConfig
	wg  sync.WaitGroup
}

func newBastion(t *testing.T, password string, authorized ssh.PublicKey) *bastion {
	t.Helper()
	_, hostKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(hostKey)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if password != "" && string(pass) == password {
				return &ssh.Permissions{}, nil
			}
			return nil, errors.New("bad password")
		},
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if authorized != nil && string(key.Marshal()) == string(authorized.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, errors.New("unknown key")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	b := &bastion{ln: ln, cfg: cfg}
	b.wg.Add(1)
	go b.serve()
	t.Cleanup(func() {
		ln.Close()
		b.wg.Wait()
	})
	return b
}

func (b *bastion) serve() {
	defer b.wg.Done()
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return
		}
		b.wg.Add(1)
		go b.handle(conn)
	}
}

func (b *bastion) handle(conn net.Conn) {
	defer b.wg.Done()
	defer conn.Close()
	sconn, chans, reqs, err := ssh.NewServerConn(conn, b.cfg)
	if err != nil {
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "direct-tcpip" {
			_ = nc.Reject(ssh.UnknownChannelType, "only direct-tcpip")
			continue
		}
		var target struct {
			Host     string
			Port     uint32
			OrigHost string
			OrigPort uint32
		}
		if err := ssh.Unmarshal(nc.ExtraData(), &target); err != nil {
			_ = nc.Reject(ssh.ConnectionFailed, err.Error())
			continue
		}
		upstream, err := net.Dial("tcp", net.JoinHostPort(target.Host, strconv.Itoa(int(target.Port))))
		if err != nil {
			_ = nc.Reject(ssh.ConnectionFailed, err.Error())
			continue
		}
		ch, chReqs, err := nc.Accept()
		if err != nil {
			upstream.Close()
			continue
		}
		go ssh.DiscardRequests(chReqs)
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer ch.Close()
			defer upstream.Close()
			go func() {
				_, _ = io.Copy(upstream, ch)
				upstream.Close()
			}()
			_, _ = io.Copy(ch, upstream)
		}()
	}
}

func pongServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong "+r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func getThrough(t *testing.T, tun *Tunnel, url string) string {
	t.Helper()
	client := tun.HTTPClient(5 * time.Second)
	defer client.CloseIdleConnections()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestTunnelPassword(t *testing.T) {
	b := newBastion(t, "secret", nil)
	srv := pongServer(t)

	tun, err := DialTunnel(context.Background(), TunnelConfig{
		Address:  b.ln.Addr().String(),
		User:     "rtsh",
		Password: "secret",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	defer tun.Close()

	assert.Equal(t, "pong /health", getThrough(t, tun, srv.URL+"/health"))
}

func TestTunnelKeyFile(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	keyFile := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(block), 0o600))

	b := newBastion(t, "", sshPub)
	srv := pongServer(t)

	tun, err := DialTunnel(context.Background(), TunnelConfig{
		Address: b.ln.Addr().String(),
		User:    "rtsh",
		KeyFile: keyFile,
	})
	require.NoError(t, err)
	defer tun.Close()

	assert.Equal(t, "pong /api/contexts", getThrough(t, tun, srv.URL+"/api/contexts"))
}

func TestTunnelFailures(t *testing.T) {
	b := newBastion(t, "secret", nil)

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedAddr := closed.Addr().String()
	require.NoError(t, closed.Close())

	tests := []struct {
		name        string
		cfg         TunnelConfig
		unreachable bool
	}{
		{name: "no user", cfg: TunnelConfig{Address: b.ln.Addr().String(), Password: "secret"}},
		{name: "no auth", cfg: TunnelConfig{Address: b.ln.Addr().String(), User: "rtsh"}},
		{name: "missing key file", cfg: TunnelConfig{Address: b.ln.Addr().String(), User: "rtsh", KeyFile: filepath.Join(t.TempDir(), "nope")}},
		{name: "wrong password", cfg: TunnelConfig{Address: b.ln.Addr().String(), User: "rtsh", Password: "guess"}},
		{name: "nothing listening", cfg: TunnelConfig{Address: closedAddr, User: "rtsh", Password: "secret"}, unreachable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Timeout = 5 * time.Second
			tun, err := DialTunnel(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Nil(t, tun)
			assert.Equal(t, tt.unreachable, errors.Is(err, ErrUnreachable))
		})
	}
}
