package states

import "github.com/aortez/dirtsim/pkg/statemachine"

// Evolution runs a training session; the actual generation loop lives in
// internal/evolution and posts TrainingComplete back onto this machine's
// queue when it finishes.
type Evolution struct{}

func (s *Evolution) Name() string        { return "Evolution" }
func (s *Evolution) OnEnter(ctx *Context) { ctx.logf("server: entering Evolution") }
func (s *Evolution) OnExit(ctx *Context)  {}

func (s *Evolution) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch e := event.(type) {
	case TrainingComplete:
		ctx.pendingTrainingSummary = &e.Summary
		return &UnsavedTrainingResult{}, true
	case Stop:
		return &Idle{}, true
	default:
		return nil, false
	}
}
