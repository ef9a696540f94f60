package states

import "github.com/aortez/dirtsim/pkg/statemachine"

// UnsavedTrainingResult holds a completed evolution run's best candidate
// until the operator explicitly accepts or discards it (§4.10).
type UnsavedTrainingResult struct{}

func (s *UnsavedTrainingResult) Name() string { return "UnsavedTrainingResult" }
func (s *UnsavedTrainingResult) OnEnter(ctx *Context) {
	ctx.logf("server: entering UnsavedTrainingResult")
}
func (s *UnsavedTrainingResult) OnExit(ctx *Context) { ctx.pendingTrainingSummary = nil }

func (s *UnsavedTrainingResult) Handle(ctx *Context, event Event) (statemachine.State[*Context, Event], bool) {
	switch event.(type) {
	case TrainingResultSave, TrainingResultDiscard:
		// Persistence/discard of the genome itself is internal/evolution's
		// concern; this transition only reflects that the operator has
		// made a decision and the server returns to Idle either way.
		return &Idle{}, true
	default:
		return nil, false
	}
}
