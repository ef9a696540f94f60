package states

import "github.com/aortez/dirtsim/pkg/statemachine"

const eventQueueDepth = 64

// RegisterGlobalHandlers wires Quit ahead of every per-state Handle.
func RegisterGlobalHandlers(m *statemachine.Machine[*Context, Event]) {
	m.AddGlobalHandler(func(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
		switch event.(type) {
		case Quit:
			return &Shutdown{}, true
		default:
			return nil, false
		}
	})
}

// NewMachine builds the UI's state machine starting in Startup.
func NewMachine(ctx *Context) *statemachine.Machine[*Context, Event] {
	m := statemachine.New[*Context, Event](ctx, &Startup{}, eventQueueDepth)
	RegisterGlobalHandlers(m)
	return m
}
