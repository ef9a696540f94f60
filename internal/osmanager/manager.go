package osmanager

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const authorizedKeysMode = 0o600

// Manager ties the allowlist, this node's own keypair, and the local SSH
// authorized_keys file together so TrustPeer/UntrustPeer/TrustBundleGet can
// be exposed as one unit to the CLI and server dispatch layers.
type Manager struct {
	Allowlist          *Allowlist
	Keypair            *LocalKeypair
	AuthorizedKeysPath string
	SelfHost           string
	SelfSSHUser        string
	SelfSSHPort        int
}

// NewManager wires a Manager rooted at workDir, with authorized_keys at its
// conventional location under workDir/.ssh.
func NewManager(workDir, selfHost, selfSSHUser string, selfSSHPort int) *Manager {
	return &Manager{
		Allowlist:          NewAllowlist(filepath.Join(workDir, "peer-allowlist.json")),
		Keypair:            NewLocalKeypair(workDir),
		AuthorizedKeysPath: filepath.Join(workDir, ".ssh", "authorized_keys"),
		SelfHost:           selfHost,
		SelfSSHUser:        selfSSHUser,
		SelfSSHPort:        selfSSHPort,
	}
}

// TrustPeer appends bundle to the allowlist and mirrors its client_pubkey
// into the local authorized_keys file.
func (m *Manager) TrustPeer(bundle PeerTrustBundle) error {
	if err := m.Allowlist.TrustPeer(bundle); err != nil {
		return err
	}
	return m.appendAuthorizedKey(bundle.ClientPubkey)
}

// UntrustPeer removes the allowlist entry and strips the matching
// authorized-key line, if present.
func (m *Manager) UntrustPeer(host string) error {
	bundle, err := m.Allowlist.Lookup(host)
	if err != nil {
		if _, ok := err.(*ErrAllowlistNotFound); ok {
			return nil
		}
		return err
	}
	if err := m.Allowlist.UntrustPeer(host); err != nil {
		return err
	}
	return m.removeAuthorizedKey(bundle.ClientPubkey)
}

// TrustBundleGet emits this node's own trust bundle, generating a client
// keypair on first use.
func (m *Manager) TrustBundleGet() (PeerTrustBundle, error) {
	pubkey, err := m.Keypair.PublicKeyAuthorizedKeysLine()
	if err != nil {
		return PeerTrustBundle{}, err
	}
	fingerprint, err := m.Keypair.Fingerprint()
	if err != nil {
		return PeerTrustBundle{}, err
	}
	return PeerTrustBundle{
		Host:                  m.SelfHost,
		SSHUser:               m.SelfSSHUser,
		SSHPort:               m.SelfSSHPort,
		HostFingerprintSHA256: fingerprint,
		ClientPubkey:          strings.TrimSpace(pubkey),
	}, nil
}

func (m *Manager) appendAuthorizedKey(pubkey string) error {
	if pubkey == "" {
		return nil
	}
	lines, err := m.readAuthorizedKeys()
	if err != nil {
		return err
	}
	for _, l := range lines {
		if l == pubkey {
			return nil
		}
	}
	lines = append(lines, pubkey)
	return m.writeAuthorizedKeys(lines)
}

func (m *Manager) removeAuthorizedKey(pubkey string) error {
	if pubkey == "" {
		return nil
	}
	lines, err := m.readAuthorizedKeys()
	if err != nil {
		return err
	}
	out := lines[:0]
	for _, l := range lines {
		if l != pubkey {
			out = append(out, l)
		}
	}
	return m.writeAuthorizedKeys(out)
}

func (m *Manager) readAuthorizedKeys() ([]string, error) {
	f, err := os.Open(m.AuthorizedKeysPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read authorized_keys: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func (m *Manager) writeAuthorizedKeys(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(m.AuthorizedKeysPath), 0o700); err != nil {
		return fmt.Errorf("create ssh dir: %w", err)
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return os.WriteFile(m.AuthorizedKeysPath, []byte(content), authorizedKeysMode)
}
