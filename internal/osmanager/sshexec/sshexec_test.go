package sshexec

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/aortez/dirtsim/internal/osmanager"
)

// fakeSigner wraps a fixed ed25519 key as an sshexec.Signer for tests;
// RemoteCliRun only pins the host key algorithm, not the client's.
type fakeSigner struct{ signer ssh.Signer }

func (f fakeSigner) Sign() (ssh.Signer, error) { return f.signer, nil }

// testServer is a minimal in-process SSH server that runs a single
// canned exitStatus/stdout/stderr response for any exec request, enough
// to exercise RemoteCliRun's client-side protocol handling.
type testServer struct {
	listener   net.Listener
	hostSigner ssh.Signer
	stdout     string
	stderr     string
	exitStatus uint32
	sleep      time.Duration
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host signer: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return &testServer{listener: ln, hostSigner: hostSigner, stdout: "ok\n", exitStatus: 0}
}

func (s *testServer) fingerprint() string {
	sum := sha256.Sum256(s.hostSigner.PublicKey().Marshal())
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(sum[:])
}

func (s *testServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *testServer) serveOnce(t *testing.T) {
	t.Helper()
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	go s.handleConn(t, conn)
}

func (s *testServer) handleConn(t *testing.T, conn net.Conn) {
	config := &ssh.ServerConfig{NoClientAuth: true}
	config.AddHostKey(s.hostSigner)

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer channel.Close()
			for req := range requests {
				if req.Type == "exec" {
					req.Reply(true, nil)
					if s.sleep > 0 {
						time.Sleep(s.sleep)
					}
					channel.Write([]byte(s.stdout))
					channel.Stderr().Write([]byte(s.stderr))
					channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{s.exitStatus}))
					return
				}
				req.Reply(false, nil)
			}
		}()
	}
}

func setupAllowlist(t *testing.T, host string, port int, fingerprint string) *osmanager.Allowlist {
	t.Helper()
	a := osmanager.NewAllowlist(filepath.Join(t.TempDir(), "allowlist.json"))
	if err := a.TrustPeer(osmanager.PeerTrustBundle{
		Host:                  host,
		SSHUser:               "dirtsim",
		SSHPort:               port,
		HostFingerprintSHA256: fingerprint,
	}); err != nil {
		t.Fatalf("TrustPeer: %v", err)
	}
	return a
}

func testClientSigner(t *testing.T) fakeSigner {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("client signer: %v", err)
	}
	return fakeSigner{signer: signer}
}

func TestRemoteCliRunHappyPath(t *testing.T) {
	srv := newTestServer(t)
	srv.stdout = "hello\n"
	srv.exitStatus = 0
	defer srv.listener.Close()
	go srv.serveOnce(t)

	allowlist := setupAllowlist(t, "127.0.0.1", srv.port(), srv.fingerprint())
	result, err := RemoteCliRun(context.Background(), allowlist, testClientSigner(t), "127.0.0.1", []string{"status"}, 2000)
	if err != nil {
		t.Fatalf("RemoteCliRun: %v", err)
	}
	if string(result.Stdout) != "hello\n" {
		t.Fatalf("unexpected stdout: %q", result.Stdout)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
}

func TestRemoteCliRunHostNotAllowlisted(t *testing.T) {
	a := osmanager.NewAllowlist(filepath.Join(t.TempDir(), "allowlist.json"))
	_, err := RemoteCliRun(context.Background(), a, testClientSigner(t), "unknown-host", nil, 1000)
	if err == nil || err.Error() != "Peer allowlist not found" {
		t.Fatalf("expected allowlist error, got %v", err)
	}
}

func TestRemoteCliRunFingerprintMismatch(t *testing.T) {
	srv := newTestServer(t)
	defer srv.listener.Close()
	go srv.serveOnce(t)

	allowlist := setupAllowlist(t, "127.0.0.1", srv.port(), "SHA256:wrong-fingerprint")
	_, err := RemoteCliRun(context.Background(), allowlist, testClientSigner(t), "127.0.0.1", []string{"status"}, 2000)
	if err == nil || err.Error() != "Host fingerprint mismatch" {
		t.Fatalf("expected fingerprint mismatch error, got %v", err)
	}
}

func TestRemoteCliRunCliNotFoundMapsExitCode127(t *testing.T) {
	srv := newTestServer(t)
	srv.stderr = "dirtsim-cli: not found\n"
	srv.exitStatus = 127
	defer srv.listener.Close()
	go srv.serveOnce(t)

	allowlist := setupAllowlist(t, "127.0.0.1", srv.port(), srv.fingerprint())
	_, err := RemoteCliRun(context.Background(), allowlist, testClientSigner(t), "127.0.0.1", []string{"status"}, 2000)
	if err == nil || err.Error() != "dirtsim-cli not found on remote host" {
		t.Fatalf("expected cli-not-found error, got %v", err)
	}
}

func TestRemoteCliRunTimesOut(t *testing.T) {
	srv := newTestServer(t)
	srv.sleep = 200 * time.Millisecond
	defer srv.listener.Close()
	go srv.serveOnce(t)

	allowlist := setupAllowlist(t, "127.0.0.1", srv.port(), srv.fingerprint())
	_, err := RemoteCliRun(context.Background(), allowlist, testClientSigner(t), "127.0.0.1", []string{"status"}, 20)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if _, ok := err.(ErrTimedOut); !ok {
		t.Fatalf("expected ErrTimedOut, got %T: %v", err, err)
	}
}
