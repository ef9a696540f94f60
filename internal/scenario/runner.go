// Package scenario implements the ScenarioSession tagged union and the
// ScenarioRunner contract scenarios implement against a world.Data grid.
package scenario

import "github.com/aortez/dirtsim/internal/world"

// Metadata describes a scenario for listing/selection UIs.
type Metadata struct {
	Name            string
	Description     string
	Category        string
	RequiredWidth   int
	RequiredHeight  int
}

// Runner is the trait-shaped contract every grid scenario implements
// (§4.5): metadata, config get/set, lifecycle hooks, and per-tick update.
type Runner interface {
	Metadata() Metadata
	Config() any
	SetConfig(cfg any, w *world.Data) error
	Setup(w *world.Data)
	Reset(w *world.Data)
	Tick(w *world.Data, deltaTime float64)
}
