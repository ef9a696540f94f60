// Package wifi declares the narrow adapter the server process's state
// machine uses to reach the host's Wi-Fi configuration (§4.12). A real
// implementation would shell out to NetworkManager over dbus; that is out
// of scope here (§1), so this package carries only the interface plus an
// in-memory fake for tests.
package wifi

import "context"

// Network is one row of a Scan result.
type Network struct {
	SSID      string
	SignalDBM int
	Secured   bool
}

// Status is the current connection state, as Status would report it.
type Status struct {
	Connected bool
	SSID      string
}

// Manager is the adapter surface the state machine depends on. Scan lists
// visible networks, Connect joins one with a passphrase, Status reports the
// current association.
type Manager interface {
	Scan(ctx context.Context) ([]Network, error)
	Connect(ctx context.Context, ssid, psk string) error
	Status(ctx context.Context) (Status, error)
}
