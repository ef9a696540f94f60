package osmanager

import (
	"testing"

	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

func newTestDispatchServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{manager: NewManager(t.TempDir(), "self-host", "dirtsim", 2222)}
	s.wsService = wsnet.New(dispatch.NewTable(), nil)
	s.registerCommands()
	return s
}

func TestDispatchJSONTrustAndUntrustPeer(t *testing.T) {
	s := newTestDispatchServer(t)

	_, apiErr := s.dispatchJSON("TrustPeer", []byte(`{"bundle":{"host":"peer-a","client_pubkey":"ssh-ed25519 AAAAC3 peer-a"}}`))
	if apiErr != nil {
		t.Fatalf("TrustPeer: %v", apiErr)
	}

	value, apiErr := s.dispatchJSON("TrustBundleGet", nil)
	if apiErr != nil {
		t.Fatalf("TrustBundleGet: %v", apiErr)
	}
	if _, ok := value.(map[string]any)["bundle"]; !ok {
		t.Fatalf("expected a bundle field in %v", value)
	}

	_, apiErr = s.dispatchJSON("UntrustPeer", []byte(`{"host":"peer-a"}`))
	if apiErr != nil {
		t.Fatalf("UntrustPeer: %v", apiErr)
	}
}

func TestDispatchJSONUnknownCommand(t *testing.T) {
	s := newTestDispatchServer(t)
	_, apiErr := s.dispatchJSON("NoSuchCommand", nil)
	if apiErr == nil {
		t.Fatal("expected an error for an unrecognized JSON command")
	}
}

func TestDispatchJSONMalformedRequest(t *testing.T) {
	s := newTestDispatchServer(t)
	_, apiErr := s.dispatchJSON("UntrustPeer", []byte(`{not json`))
	if apiErr == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
