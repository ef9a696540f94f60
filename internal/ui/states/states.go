package states

import "github.com/aortez/dirtsim/pkg/statemachine"

type Startup struct{}

func (s *Startup) Name() string        { return "Startup" }
func (s *Startup) OnEnter(ctx *Context) { ctx.logf("ui: entering Startup") }
func (s *Startup) OnExit(ctx *Context)  {}
// Handle leaves Startup on any event; an event Disconnected would handle
// (ServerConnected) is applied at once rather than dropped.
func (s *Startup) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	if next, handled := (&Disconnected{}).Handle(ctx, event); handled {
		return next, true
	}
	return &Disconnected{}, true
}

type Disconnected struct{}

func (s *Disconnected) Name() string        { return "Disconnected" }
func (s *Disconnected) OnEnter(ctx *Context) { ctx.logf("ui: entering Disconnected") }
func (s *Disconnected) OnExit(ctx *Context)  {}
func (s *Disconnected) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case ServerConnected:
		return &StartMenu{}, true
	default:
		return nil, false
	}
}

type StartMenu struct{}

func (s *StartMenu) Name() string        { return "StartMenu" }
func (s *StartMenu) OnEnter(ctx *Context) { ctx.logf("ui: entering StartMenu") }
func (s *StartMenu) OnExit(ctx *Context)  {}
func (s *StartMenu) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch e := event.(type) {
	case ServerDisconnected:
		return &Disconnected{}, true
	case SelectScenario:
		ctx.SelectedScenarioID = e.ScenarioID
		return &SimRunning{}, true
	case EnterSynth:
		return &Synth{}, true
	case EnterSynthConfig:
		return &SynthConfig{}, true
	case EnterTraining:
		return &Training{}, true
	default:
		return nil, false
	}
}

type SimRunning struct{}

func (s *SimRunning) Name() string        { return "SimRunning" }
func (s *SimRunning) OnEnter(ctx *Context) { ctx.logf("ui: entering SimRunning") }
func (s *SimRunning) OnExit(ctx *Context)  {}
func (s *SimRunning) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case ServerDisconnected:
		return &Disconnected{}, true
	case PauseToggle:
		return &Paused{}, true
	case Back:
		return &StartMenu{}, true
	default:
		return nil, false
	}
}

type Paused struct{}

func (s *Paused) Name() string        { return "Paused" }
func (s *Paused) OnEnter(ctx *Context) { ctx.logf("ui: entering Paused") }
func (s *Paused) OnExit(ctx *Context)  {}
func (s *Paused) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case ServerDisconnected:
		return &Disconnected{}, true
	case PauseToggle:
		return &SimRunning{}, true
	case Back:
		return &StartMenu{}, true
	default:
		return nil, false
	}
}

// Synth is the live synth keyboard; KeyDown/KeyUp forward NoteOn/NoteOff to
// the audio process via ctx.Link.
type Synth struct{}

func (s *Synth) Name() string        { return "Synth" }
func (s *Synth) OnEnter(ctx *Context) { ctx.logf("ui: entering Synth") }
func (s *Synth) OnExit(ctx *Context) {
	if ctx.HeldNoteID != 0 {
		_ = ctx.Link.SendNoteOff(ctx.HeldNoteID)
		ctx.HeldNoteID = 0
	}
}
func (s *Synth) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch e := event.(type) {
	case ServerDisconnected:
		return &Disconnected{}, true
	case KeyDown:
		if e.DurationMS <= 0 {
			ctx.logf("ui: synth key rejected, duration_ms must be > 0: %+v", e)
			return nil, true
		}
		if ctx.Link != nil {
			if err := ctx.Link.SendNoteOn(e.NoteID, e.FrequencyHz, e.Amplitude); err != nil {
				ctx.logf("ui: NoteOn failed: %v", err)
			}
		}
		ctx.HeldNoteID = e.NoteID
		return nil, true
	case KeyUp:
		if ctx.Link != nil {
			if err := ctx.Link.SendNoteOff(e.NoteID); err != nil {
				ctx.logf("ui: NoteOff failed: %v", err)
			}
		}
		if ctx.HeldNoteID == e.NoteID {
			ctx.HeldNoteID = 0
		}
		return nil, true
	case Back:
		return &StartMenu{}, true
	default:
		return nil, false
	}
}

type SynthConfig struct{}

func (s *SynthConfig) Name() string        { return "SynthConfig" }
func (s *SynthConfig) OnEnter(ctx *Context) { ctx.logf("ui: entering SynthConfig") }
func (s *SynthConfig) OnExit(ctx *Context)  {}
func (s *SynthConfig) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case ServerDisconnected:
		return &Disconnected{}, true
	case Back:
		return &StartMenu{}, true
	default:
		return nil, false
	}
}

type Training struct{}

func (s *Training) Name() string        { return "Training" }
func (s *Training) OnEnter(ctx *Context) { ctx.logf("ui: entering Training") }
func (s *Training) OnExit(ctx *Context)  {}
func (s *Training) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case ServerDisconnected:
		return &Disconnected{}, true
	case Back:
		return &StartMenu{}, true
	default:
		return nil, false
	}
}

type Shutdown struct{}

func (s *Shutdown) Name() string        { return "Shutdown" }
func (s *Shutdown) OnEnter(ctx *Context) { ctx.logf("ui: entering Shutdown") }
func (s *Shutdown) OnExit(ctx *Context)  {}
func (s *Shutdown) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	return nil, false
}

