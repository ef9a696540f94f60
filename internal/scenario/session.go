package scenario

import (
	"fmt"

	"github.com/aortez/dirtsim/internal/world"
)

// Kind discriminates which arm of Session is active.
type Kind int

const (
	KindNone Kind = iota
	KindGridWorld
	KindNesWorld
)

// NesDriver is the narrow interface a NES-backed scenario drives; the real
// SmolNES emulator is out of scope, so the disabled production stub
// DisabledNesDriver is its only implementation.
type NesDriver interface {
	// Setup resolves and validates romPath (iNES header, supported mapper)
	// before the driver is used; a non-nil error must leave the caller's
	// session state untouched.
	Setup(romPath string) error
	Healthy() bool
	Running() bool
	RenderedFrameCount() uint64
	Tick(deltaTime float64) (*world.ScenarioVideoFrame, error)
	SetController1State(buttonMask uint8)
	Reset() error
	Close() error
}

type gridWorldState struct {
	scenarioID string
	world      *world.Data
	runner     Runner
}

type nesWorldState struct {
	scenarioID string
	driver     NesDriver
	config     any
	worldData  *world.Data // fixed 256x240 shim, no cells
}

// Session is the tagged union from §4.5: None | GridWorld | NesWorld, only
// one arm populated at a time.
type Session struct {
	kind     Kind
	grid     *gridWorldState
	nesWorld *nesWorldState
}

// Kind reports which arm is currently active.
func (s *Session) Kind() Kind { return s.kind }

// HasSession reports whether either arm is populated.
func (s *Session) HasSession() bool { return s.kind != KindNone }

// ScenarioID returns the active scenario's id, or "" if no session.
func (s *Session) ScenarioID() string {
	switch s.kind {
	case KindGridWorld:
		return s.grid.scenarioID
	case KindNesWorld:
		return s.nesWorld.scenarioID
	default:
		return ""
	}
}

// StartGridWorld populates the GridWorld arm, replacing any prior session.
func (s *Session) StartGridWorld(scenarioID string, w *world.Data, runner Runner) {
	s.grid = &gridWorldState{scenarioID: scenarioID, world: w, runner: runner}
	s.nesWorld = nil
	s.kind = KindGridWorld
	runner.Setup(w)
}

// StartNesWorld validates romPath via driver.Setup and, only on success,
// populates the NesWorld arm with its fixed 256x240 shim. A validation
// failure returns an error and leaves any prior session arm unchanged.
func (s *Session) StartNesWorld(scenarioID string, driver NesDriver, romPath string, config any) error {
	if err := driver.Setup(romPath); err != nil {
		return err
	}

	shim := world.NewData(256, 240)
	s.nesWorld = &nesWorldState{scenarioID: scenarioID, driver: driver, config: config, worldData: shim}
	s.grid = nil
	s.kind = KindNesWorld
	return nil
}

// RequireGridWorld returns the grid-world access pair, or an error if the
// active arm is not GridWorld.
func (s *Session) RequireGridWorld() (*world.Data, Runner, error) {
	switch s.kind {
	case KindGridWorld:
		return s.grid.world, s.grid.runner, nil
	case KindNesWorld:
		return nil, nil, fmt.Errorf("Not available in NesWorld scenario")
	default:
		return nil, nil, fmt.Errorf("no active grid-world session")
	}
}

// RequireNesWorld returns the NES driver/config/shim, or an error if the
// active arm is not NesWorld.
func (s *Session) RequireNesWorld() (NesDriver, any, *world.Data, error) {
	if s.kind != KindNesWorld {
		return nil, nil, nil, fmt.Errorf("no active NES session")
	}
	return s.nesWorld.driver, s.nesWorld.config, s.nesWorld.worldData, nil
}

// Reset re-runs the active arm's reset hook in place.
func (s *Session) Reset() error {
	switch s.kind {
	case KindGridWorld:
		s.grid.runner.Reset(s.grid.world)
		return nil
	case KindNesWorld:
		return s.nesWorld.driver.Reset()
	default:
		return fmt.Errorf("no active session to reset")
	}
}

// Tick advances the active arm by deltaTime seconds.
func (s *Session) Tick(deltaTime float64) error {
	switch s.kind {
	case KindGridWorld:
		s.grid.runner.Tick(s.grid.world, deltaTime)
		return nil
	case KindNesWorld:
		frame, err := s.nesWorld.driver.Tick(deltaTime)
		if err != nil {
			return err
		}
		s.nesWorld.worldData.ScenarioVideoFrame = frame
		return nil
	default:
		return fmt.Errorf("no active session to tick")
	}
}

// Stop tears down the active arm's resources (NES driver only) and clears
// the session back to KindNone.
func (s *Session) Stop() error {
	var err error
	if s.kind == KindNesWorld {
		err = s.nesWorld.driver.Close()
	}
	s.kind = KindNone
	s.grid = nil
	s.nesWorld = nil
	return err
}
