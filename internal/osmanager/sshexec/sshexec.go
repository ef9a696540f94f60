// Package sshexec implements RemoteCliRun (§4.7): dialing a trusted peer
// over SSH, verifying its pinned host fingerprint, and running
// dirtsim-cli on the far side with an output cap and deadline.
package sshexec

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/aortez/dirtsim/internal/osmanager"
)

const (
	dialTimeout  = 5 * time.Second
	outputLimit  = 2 * 1024 * 1024 // 2MB per stream, per §4.7 step 5
	remoteBinary = "dirtsim-cli"
)

// Result is the outcome of a RemoteCliRun call.
type Result struct {
	ExitCode  int
	Stdout    []byte
	Stderr    []byte
	ElapsedMS int64
}

// ErrOutputExceeded backs "Remote CLI output exceeded limit".
type ErrOutputExceeded struct{}

func (ErrOutputExceeded) Error() string { return "Remote CLI output exceeded limit" }

// ErrFingerprintMismatch backs "Host fingerprint mismatch".
type ErrFingerprintMismatch struct{}

func (ErrFingerprintMismatch) Error() string { return "Host fingerprint mismatch" }

// ErrCliNotFound backs "dirtsim-cli not found on remote host".
type ErrCliNotFound struct{}

func (ErrCliNotFound) Error() string { return "dirtsim-cli not found on remote host" }

// ErrTimedOut backs the templated "Remote CLI command timed out after Nms".
type ErrTimedOut struct{ TimeoutMS int64 }

func (e ErrTimedOut) Error() string {
	return fmt.Sprintf("Remote CLI command timed out after %dms", e.TimeoutMS)
}

// Signer produces the locally stored client keypair used to authenticate,
// mirroring the bundle's client_pubkey.
type Signer interface {
	Sign() (ssh.Signer, error)
}

// RemoteCliRun executes the 7-step remote exec protocol against host, using
// allowlist to resolve its trust bundle and signer to authenticate.
func RemoteCliRun(ctx context.Context, allowlist *osmanager.Allowlist, signer Signer, host string, argv []string, timeoutMS int64) (Result, error) {
	start := time.Now()

	// Step 1: load allowlist, fail if host absent.
	bundle, err := allowlist.Lookup(host)
	if err != nil {
		return Result{}, err
	}

	if timeoutMS <= 0 {
		timeoutMS = 1
	}

	// Step 2: open TCP within dialTimeout, restricted to the pinned host
	// key algorithm.
	addr := net.JoinHostPort(bundle.Host, fmt.Sprintf("%d", bundle.SSHPort))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return Result{}, fmt.Errorf("dial %s: %w", addr, err)
	}

	signerImpl, err := signer.Sign()
	if err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("load client signer: %w", err)
	}

	var fingerprintErr error
	clientConfig := &ssh.ClientConfig{
		User:              bundle.SSHUser,
		Auth:              []ssh.AuthMethod{ssh.PublicKeys(signerImpl)},
		HostKeyAlgorithms: []string{ssh.KeyAlgoECDSA256},
		Timeout:           dialTimeout,
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			// Step 3: verify the presented host key's fingerprint matches
			// the pinned bundle value.
			sum := sha256.Sum256(key.Marshal())
			got := "SHA256:" + base64.RawStdEncoding.EncodeToString(sum[:])
			if got != bundle.HostFingerprintSHA256 {
				fingerprintErr = ErrFingerprintMismatch{}
				return fingerprintErr
			}
			return nil
		},
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		if fingerprintErr != nil {
			return Result{}, fingerprintErr
		}
		return Result{}, fmt.Errorf("ssh handshake: %w", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	// Step 5: open a session, build the quoted remote command.
	session, err := client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	cmd := remoteBinary
	for _, a := range argv {
		cmd += " " + shellQuote(a)
	}

	var stdout, stderr bytes.Buffer
	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := session.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := session.Start(cmd); err != nil {
		return Result{}, fmt.Errorf("start remote command: %w", err)
	}

	copyErr := make(chan error, 2)
	go func() { copyErr <- copyCapped(&stdout, stdoutPipe, outputLimit) }()
	go func() { copyErr <- copyCapped(&stderr, stderrPipe, outputLimit) }()

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	// Step 6: enforce timeoutMS.
	timer := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		session.Signal(ssh.SIGKILL)
		session.Close()
		return Result{}, ErrTimedOut{TimeoutMS: timeoutMS}
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return Result{}, ctx.Err()
	}

	for i := 0; i < 2; i++ {
		if err := <-copyErr; err != nil {
			return Result{}, err
		}
	}

	elapsed := time.Since(start).Milliseconds()

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*ssh.ExitError); ok {
			exitCode = exitErr.ExitStatus()
		} else {
			return Result{}, fmt.Errorf("remote command failed: %w", waitErr)
		}
	}

	if exitCode == 127 && strings.Contains(strings.ToLower(stderr.String()), "not found") {
		return Result{}, ErrCliNotFound{}
	}

	return Result{
		ExitCode:  exitCode,
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		ElapsedMS: elapsed,
	}, nil
}

func copyCapped(dst *bytes.Buffer, src io.Reader, limit int64) error {
	n, err := io.CopyN(dst, src, limit+1)
	if err != nil && err != io.EOF {
		return err
	}
	if n > limit {
		return ErrOutputExceeded{}
	}
	return nil
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
