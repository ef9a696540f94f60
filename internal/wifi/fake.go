package wifi

import (
	"context"
	"fmt"
)

// Fake is an in-memory Manager for tests: Scan returns a fixed network
// list (or ScanErr if set), Connect fails if ConnectErr is set or the
// requested SSID isn't in that list, and only a successful Connect is
// recorded in Status.
type Fake struct {
	Networks   []Network
	ScanErr    error
	ConnectErr error

	status Status
}

func NewFake(networks ...Network) *Fake {
	return &Fake{Networks: networks}
}

func (f *Fake) Scan(ctx context.Context) ([]Network, error) {
	if f.ScanErr != nil {
		return nil, f.ScanErr
	}
	return f.Networks, nil
}

func (f *Fake) Connect(ctx context.Context, ssid, psk string) error {
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	for _, n := range f.Networks {
		if n.SSID == ssid {
			f.status = Status{Connected: true, SSID: ssid}
			return nil
		}
	}
	return fmt.Errorf("wifi: no visible network named %q", ssid)
}

func (f *Fake) Status(ctx context.Context) (Status, error) {
	return f.status, nil
}
