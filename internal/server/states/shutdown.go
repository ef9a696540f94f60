package states

import "github.com/aortez/dirtsim/pkg/statemachine"

// Shutdown is terminal: it tears down the active session and drops every
// further event.
type Shutdown struct{}

func (s *Shutdown) Name() string { return "Shutdown" }
func (s *Shutdown) OnEnter(ctx *Context) {
	ctx.logf("server: entering Shutdown")
	if ctx.Session != nil && ctx.Session.HasSession() {
		_ = ctx.Session.Stop()
	}
}
func (s *Shutdown) OnExit(ctx *Context) {}

func (s *Shutdown) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	return nil, false
}

// ErrorState is terminal: entered when a subsystem reports an unrecoverable
// Fault. It never transitions out.
type ErrorState struct{ Cause error }

func (s *ErrorState) Name() string { return "Error" }
func (s *ErrorState) OnEnter(ctx *Context) {
	ctx.logf("server: entering Error state: %v", s.Cause)
}
func (s *ErrorState) OnExit(ctx *Context) {}

func (s *ErrorState) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	return nil, false
}
