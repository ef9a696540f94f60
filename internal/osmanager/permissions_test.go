package osmanager

import (
	"os"
	"testing"
)

func TestEnsurePermissionsTightensExistingFiles(t *testing.T) {
	m := NewManager(t.TempDir(), "self-host", "dirtsim", 2222)

	if err := m.Allowlist.TrustPeer(PeerTrustBundle{Host: "peer-a"}); err != nil {
		t.Fatalf("TrustPeer: %v", err)
	}
	if err := os.Chmod(m.Allowlist.path, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if err := m.EnsurePermissions(); err != nil {
		t.Fatalf("EnsurePermissions: %v", err)
	}

	info, err := os.Stat(m.Allowlist.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestEnsurePermissionsIgnoresMissingFiles(t *testing.T) {
	m := NewManager(t.TempDir(), "self-host", "dirtsim", 2222)
	if err := m.EnsurePermissions(); err != nil {
		t.Fatalf("expected no error for missing files, got %v", err)
	}
}
