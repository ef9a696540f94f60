package states

import "github.com/aortez/dirtsim/pkg/statemachine"

// Startup is the server's initial state; it transitions to Idle as soon as
// its OnEnter work (device/world setup happens upstream in main) completes,
// represented here as an immediate internal Stop->Idle-equivalent path: the
// first event of any kind advances it, matching the teacher's
// immediately-advancing init state.
type Startup struct{}

func (s *Startup) Name() string { return "Startup" }

func (s *Startup) OnEnter(ctx *Context) { ctx.logf("server: entering Startup") }
func (s *Startup) OnExit(ctx *Context)  {}

func (s *Startup) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case StartScenario:
		// Startup treats its first real command as "initialization done,
		// proceed" by falling through to Idle's own handling.
		idle := &Idle{}
		next, _ := idle.Handle(ctx, event)
		if next != nil {
			return next, true
		}
		return idle, true
	default:
		return &Idle{}, true
	}
}
