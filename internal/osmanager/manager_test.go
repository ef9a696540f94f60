package osmanager

import (
	"os"
	"strings"
	"testing"
)

func TestTrustBundleGetGeneratesKeypairOnFirstUse(t *testing.T) {
	m := NewManager(t.TempDir(), "self-host", "dirtsim", 2222)

	bundle, err := m.TrustBundleGet()
	if err != nil {
		t.Fatalf("TrustBundleGet: %v", err)
	}
	if bundle.Host != "self-host" || bundle.SSHUser != "dirtsim" || bundle.SSHPort != 2222 {
		t.Fatalf("unexpected bundle identity fields: %+v", bundle)
	}
	if !strings.HasPrefix(bundle.HostFingerprintSHA256, "SHA256:") {
		t.Fatalf("expected SHA256: prefixed fingerprint, got %q", bundle.HostFingerprintSHA256)
	}
	if bundle.ClientPubkey == "" {
		t.Fatal("expected a non-empty client pubkey")
	}

	again, err := m.TrustBundleGet()
	if err != nil {
		t.Fatalf("TrustBundleGet (second call): %v", err)
	}
	if again.HostFingerprintSHA256 != bundle.HostFingerprintSHA256 {
		t.Fatal("expected the same keypair to be reused across calls")
	}
}

func TestTrustPeerMirrorsPubkeyIntoAuthorizedKeys(t *testing.T) {
	m := NewManager(t.TempDir(), "self-host", "dirtsim", 2222)
	bundle := PeerTrustBundle{Host: "peer-a", ClientPubkey: "ssh-ed25519 AAAAC3 peer-a"}

	if err := m.TrustPeer(bundle); err != nil {
		t.Fatalf("TrustPeer: %v", err)
	}
	data, err := os.ReadFile(m.AuthorizedKeysPath)
	if err != nil {
		t.Fatalf("read authorized_keys: %v", err)
	}
	if !strings.Contains(string(data), bundle.ClientPubkey) {
		t.Fatalf("expected authorized_keys to contain peer pubkey, got %q", string(data))
	}
}

func TestUntrustPeerStripsAuthorizedKeyLine(t *testing.T) {
	m := NewManager(t.TempDir(), "self-host", "dirtsim", 2222)
	bundle := PeerTrustBundle{Host: "peer-a", ClientPubkey: "ssh-ed25519 AAAAC3 peer-a"}

	if err := m.TrustPeer(bundle); err != nil {
		t.Fatalf("TrustPeer: %v", err)
	}
	if err := m.UntrustPeer("peer-a"); err != nil {
		t.Fatalf("UntrustPeer: %v", err)
	}
	data, err := os.ReadFile(m.AuthorizedKeysPath)
	if err != nil {
		t.Fatalf("read authorized_keys: %v", err)
	}
	if strings.Contains(string(data), bundle.ClientPubkey) {
		t.Fatal("expected authorized_keys to no longer contain peer pubkey")
	}
}
