package states

import "github.com/aortez/dirtsim/pkg/statemachine"

// Idle waits for a scenario to be started.
type Idle struct{}

func (s *Idle) Name() string            { return "Idle" }
func (s *Idle) OnEnter(ctx *Context)     { ctx.logf("server: entering Idle") }
func (s *Idle) OnExit(ctx *Context)      {}

func (s *Idle) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch e := event.(type) {
	case StartScenario:
		if ctx.Registry.IsNes(e.ScenarioID) {
			entry, ok := ctx.Registry.LookupNes(e.ScenarioID)
			if !ok {
				return nil, false
			}
			driver := entry.NewDriver()
			if err := ctx.Session.StartNesWorld(e.ScenarioID, driver, entry.RomPath, e.Config); err != nil {
				ctx.logf("server: NES scenario %q rejected: %v", e.ScenarioID, err)
				return nil, false
			}
			return &SimRunning{}, true
		}

		runner, _, err := ctx.Registry.New(e.ScenarioID)
		if err != nil || runner == nil {
			ctx.logf("server: unknown scenario id %q", e.ScenarioID)
			return nil, false
		}
		return &SimRunning{scenarioID: e.ScenarioID, runner: runner, config: e.Config}, true
	default:
		return nil, false
	}
}
