// Package states implements the UI process's state machine: Startup →
// Disconnected → StartMenu → {SimRunning, Paused, Synth, SynthConfig,
// Training} → Shutdown, per §4.3.
package states

// ServerLink is the narrow outbound contract the UI needs against the
// audio process's WebSocket connection; the concrete implementation is
// internal/ui's audioLink (link.go).
type ServerLink interface {
	Connected() bool
	SendNoteOn(noteID uint32, frequencyHz, amplitude float64) error
	SendNoteOff(noteID uint32) error
}

// Context is shared mutable state threaded through the UI machine.
type Context struct {
	Link   ServerLink
	Logger func(format string, args ...any)

	SelectedScenarioID string
	HeldNoteID         uint32
}

func (c *Context) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger(format, args...)
	}
}
