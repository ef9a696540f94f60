// Package osmanager implements the peer trust allowlist (§4.7): a
// persisted JSON array of PeerTrustBundle entries, written atomically and
// serialized by an in-process mutex per §5.
package osmanager

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PeerTrustBundle is the per-peer SSH identity + fingerprint record.
type PeerTrustBundle struct {
	Host                  string `json:"host"`
	SSHUser               string `json:"ssh_user"`
	SSHPort               int    `json:"ssh_port"`
	HostFingerprintSHA256 string `json:"host_fingerprint_sha256"`
	ClientPubkey          string `json:"client_pubkey"`
}

// ErrAllowlistNotFound is the sentinel behind "Peer allowlist not found" —
// returned when the named host has no entry, matching §4.7's exact wording
// for RemoteCliRun's first failure mode.
type ErrAllowlistNotFound struct{ Host string }

func (e *ErrAllowlistNotFound) Error() string { return "Peer allowlist not found" }

// Allowlist is the mutex-serialized, atomically-persisted peer trust store.
type Allowlist struct {
	mu   sync.Mutex
	path string
}

// NewAllowlist opens (without yet reading) the allowlist file at path.
func NewAllowlist(path string) *Allowlist {
	return &Allowlist{path: path}
}

func (a *Allowlist) load() ([]PeerTrustBundle, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read allowlist: %w", err)
	}
	var bundles []PeerTrustBundle
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil, fmt.Errorf("parse allowlist: %w", err)
	}
	return bundles, nil
}

// save writes bundles via write-tempfile-then-rename for atomicity.
func (a *Allowlist) save(bundles []PeerTrustBundle) error {
	data, err := json.MarshalIndent(bundles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal allowlist: %w", err)
	}

	dir := filepath.Dir(a.path)
	tmp, err := os.CreateTemp(dir, ".allowlist-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp allowlist: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp allowlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp allowlist: %w", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp allowlist: %w", err)
	}
	return nil
}

// TrustPeer appends bundle, replacing any existing entry for the same
// host.
func (a *Allowlist) TrustPeer(bundle PeerTrustBundle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	bundles, err := a.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, b := range bundles {
		if b.Host == bundle.Host {
			bundles[i] = bundle
			replaced = true
			break
		}
	}
	if !replaced {
		bundles = append(bundles, bundle)
	}
	return a.save(bundles)
}

// UntrustPeer removes the entry for host, if present.
func (a *Allowlist) UntrustPeer(host string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	bundles, err := a.load()
	if err != nil {
		return err
	}
	out := bundles[:0]
	for _, b := range bundles {
		if b.Host != host {
			out = append(out, b)
		}
	}
	return a.save(out)
}

// Lookup returns the trust bundle for host, or ErrAllowlistNotFound.
func (a *Allowlist) Lookup(host string) (PeerTrustBundle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bundles, err := a.load()
	if err != nil {
		return PeerTrustBundle{}, err
	}
	for _, b := range bundles {
		if b.Host == host {
			return b, nil
		}
	}
	return PeerTrustBundle{}, &ErrAllowlistNotFound{Host: host}
}
