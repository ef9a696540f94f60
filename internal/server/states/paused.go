package states

import "github.com/aortez/dirtsim/pkg/statemachine"

// Paused suspends ticking while keeping the scenario session intact.
type Paused struct{}

func (s *Paused) Name() string        { return "Paused" }
func (s *Paused) OnEnter(ctx *Context) { ctx.logf("server: entering Paused") }
func (s *Paused) OnExit(ctx *Context)  {}

func (s *Paused) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case Resume:
		return &SimRunning{}, true
	case Stop:
		_ = ctx.Session.Stop()
		return &Idle{}, true
	default:
		return nil, false
	}
}
