// Package states implements the server process's state machine: the
// Startup → Idle → SimRunning ↔ Paused → Evolution → UnsavedTrainingResult
// → {Shutdown, Error} chain from §4.3, built on pkg/statemachine.
package states

import (
	"context"
	"errors"

	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/internal/scenario"
	"github.com/aortez/dirtsim/internal/scenario/registry"
	"github.com/aortez/dirtsim/internal/wifi"
)

// Stats is the snapshot returned by GetStats.
type Stats struct {
	FramesRendered uint64
	ScenarioID     string
}

// Context is shared mutable state threaded through every state's
// OnEnter/OnExit/Handle. It is accessed only from the machine's single
// goroutine, per §4.3's single-threaded-cooperative requirement.
type Context struct {
	Session     *scenario.Session
	Registry    *registry.Registry
	Broadcaster *render.Broadcaster
	Wifi        wifi.Manager

	Logger func(format string, args ...any)

	framesRendered uint64
	lastFPS        float64

	// pendingTrainingSummary holds the result of the most recent
	// evolution run until the operator accepts or discards it.
	pendingTrainingSummary *TrainingSummary
}

// TrainingSummary is the candidate set an UnsavedTrainingResult state holds
// until TrainingResultSave or TrainingResultDiscard is issued (§4.10).
type TrainingSummary struct {
	GenerationCount int
	BestGenomeID    string
}

func (c *Context) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger(format, args...)
	}
}

// Stats produces the current GetStats snapshot.
func (c *Context) Stats() Stats {
	id := ""
	if c.Session != nil {
		id = c.Session.ScenarioID()
	}
	return Stats{FramesRendered: c.framesRendered, ScenarioID: id}
}

// FPS produces the current GetFPS snapshot.
func (c *Context) FPS() float64 { return c.lastFPS }

var errNoWifiManager = errors.New("no wifi manager configured")

func (c *Context) scanWifi() ([]wifi.Network, error) {
	if c.Wifi == nil {
		return nil, errNoWifiManager
	}
	return c.Wifi.Scan(context.Background())
}

func (c *Context) connectWifi(ssid, psk string) error {
	if c.Wifi == nil {
		return errNoWifiManager
	}
	return c.Wifi.Connect(context.Background(), ssid, psk)
}

func (c *Context) wifiStatus() (wifi.Status, error) {
	if c.Wifi == nil {
		return wifi.Status{}, errNoWifiManager
	}
	return c.Wifi.Status(context.Background())
}
