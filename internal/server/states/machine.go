package states

import "github.com/aortez/dirtsim/pkg/statemachine"

const eventQueueDepth = 64

// NewMachine builds the server's state machine starting in Startup, with
// the global Quit/GetFPS/GetStats/Fault handlers installed.
func NewMachine(ctx *Context) *statemachine.Machine[*Context, Event] {
	m := statemachine.New[*Context, Event](ctx, &Startup{}, eventQueueDepth)
	RegisterGlobalHandlers(m)
	return m
}
