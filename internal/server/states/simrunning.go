package states

import (
	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/internal/scenario"
	"github.com/aortez/dirtsim/internal/world"
	"github.com/aortez/dirtsim/pkg/statemachine"
)

// defaultWorldWidth/Height back scenarios that don't declare a required
// size (§4.5's RequiredWidth/RequiredHeight default to 0, meaning "any").
const (
	defaultWorldWidth  = 64
	defaultWorldHeight = 64
)

// SimRunning owns the active scenario session and advances it on every
// Tick. runner/config are only set when entering freshly from Idle; when
// resumed from Paused the session is already populated and both are nil.
type SimRunning struct {
	scenarioID string
	runner     scenario.Runner
	config     any
}

func (s *SimRunning) Name() string { return "SimRunning" }

func (s *SimRunning) OnEnter(ctx *Context) {
	ctx.logf("server: entering SimRunning (%s)", s.scenarioID)
	if s.runner == nil {
		return // resumed from Paused; session already populated.
	}

	width, height := defaultWorldWidth, defaultWorldHeight
	if meta := s.runner.Metadata(); meta.RequiredWidth > 0 && meta.RequiredHeight > 0 {
		width, height = meta.RequiredWidth, meta.RequiredHeight
	}
	w := world.NewData(width, height)

	if s.config != nil {
		if err := s.runner.SetConfig(s.config, w); err != nil {
			ctx.logf("server: SetConfig failed: %v", err)
		}
	}
	ctx.Session.StartGridWorld(s.scenarioID, w, s.runner)
}

func (s *SimRunning) OnExit(ctx *Context) {}

func (s *SimRunning) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch e := event.(type) {
	case Pause:
		return &Paused{}, true
	case Stop:
		_ = ctx.Session.Stop()
		return &Idle{}, true
	case StartEvolution:
		return &Evolution{}, true
	case Tick:
		if ctx.Session.HasSession() {
			if err := ctx.Session.Tick(e.DeltaTime); err != nil {
				ctx.logf("server: tick error: %v", err)
			}
			ctx.framesRendered++
			if ctx.Broadcaster != nil {
				ctx.Broadcaster.Broadcast(ctx.Session.ScenarioID(), nil, sessionPackable{ctx.Session})
			}
		}
		return nil, true
	default:
		return nil, false
	}
}

// sessionPackable adapts the active session's world data (whichever arm is
// live) to render.Broadcaster's Packable contract.
type sessionPackable struct{ session *scenario.Session }

func (p sessionPackable) Pack(format render.Format) render.RenderMessage {
	if w, _, err := p.session.RequireGridWorld(); err == nil {
		return render.Packer{}.Pack(w, format)
	}
	if _, _, shim, err := p.session.RequireNesWorld(); err == nil {
		return render.Packer{}.Pack(shim, format)
	}
	return render.RenderMessage{}
}
