package scenario

import (
	"errors"
	"fmt"

	"github.com/aortez/dirtsim/internal/world"
)

// DisabledNesDriver satisfies NesDriver for builds without the real SmolNES
// emulator wired in (it is out of scope per the spec's Non-goals): it
// reports itself unhealthy and never running, so a NesWorld session can be
// constructed and queried without crashing, but never produces frames.
type DisabledNesDriver struct{}

// Setup still performs real ROM validation (resolving the path and
// inspecting the iNES header) even though the emulator itself is disabled:
// validation is separable from emulation, and a bad ROM path must be
// rejected at scenario-start time regardless of which driver backs it.
func (DisabledNesDriver) Setup(romPath string) error {
	check := InspectRom(romPath)
	if !check.Compatible() {
		return fmt.Errorf("NES ROM %q rejected: %s", romPath, check.Message)
	}
	return nil
}

func (DisabledNesDriver) Healthy() bool             { return false }
func (DisabledNesDriver) Running() bool             { return false }
func (DisabledNesDriver) RenderedFrameCount() uint64 { return 0 }
func (DisabledNesDriver) Tick(float64) (*world.ScenarioVideoFrame, error) {
	return nil, errors.New("NES emulator driver not available in this build")
}
func (DisabledNesDriver) SetController1State(uint8) {}
func (DisabledNesDriver) Reset() error              { return nil }
func (DisabledNesDriver) Close() error              { return nil }
