package wifi

import (
	"context"
	"testing"
)

func TestFakeScanReturnsConfiguredNetworks(t *testing.T) {
	f := NewFake(Network{SSID: "home", SignalDBM: -50, Secured: true})

	networks, err := f.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(networks) != 1 || networks[0].SSID != "home" {
		t.Fatalf("unexpected networks: %+v", networks)
	}
}

func TestFakeConnectRejectsUnknownSSID(t *testing.T) {
	f := NewFake(Network{SSID: "home"})

	if err := f.Connect(context.Background(), "neighbor", ""); err == nil {
		t.Fatal("expected Connect to an unlisted SSID to fail")
	}
}

func TestFakeConnectUpdatesStatus(t *testing.T) {
	f := NewFake(Network{SSID: "home"})

	if err := f.Connect(context.Background(), "home", "secret"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	status, err := f.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Connected || status.SSID != "home" {
		t.Fatalf("expected connected status for home, got %+v", status)
	}
}
