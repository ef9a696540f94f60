package states

import "github.com/aortez/dirtsim/internal/wifi"

// Event is the sum type of things the server's event queue carries: network
// commands, internal transitions, and tick pulses.
type Event interface{ isEvent() }

type StartScenario struct {
	ScenarioID string
	Config     any
}

type Pause struct{}
type Resume struct{}
type Stop struct{}
type StartEvolution struct{}

// TrainingComplete is posted internally by the evolution subsystem when a
// run finishes, carrying the candidate the operator must accept or reject.
type TrainingComplete struct {
	Summary TrainingSummary
}

type TrainingResultSave struct{}
type TrainingResultDiscard struct{}

// Tick drives one simulation/render step while SimRunning.
type Tick struct{ DeltaTime float64 }

// Fault is posted internally on an unrecoverable subsystem error.
type Fault struct{ Err error }

// Global events, handled identically in every state (§4.3).
type Quit struct{}
type GetFPS struct{ Reply func(float64) }
type GetStats struct{ Reply func(Stats) }

// Wi-Fi commands (§4.12) reach the ctx.Wifi adapter from any state, the
// same way GetFPS/GetStats do.
type WifiScan struct{ Reply func([]wifi.Network, error) }
type WifiConnect struct {
	SSID  string
	PSK   string
	Reply func(error)
}
type WifiStatus struct{ Reply func(wifi.Status, error) }

func (StartScenario) isEvent()         {}
func (Pause) isEvent()                 {}
func (Resume) isEvent()                {}
func (Stop) isEvent()                  {}
func (StartEvolution) isEvent()        {}
func (TrainingComplete) isEvent()      {}
func (TrainingResultSave) isEvent()    {}
func (TrainingResultDiscard) isEvent() {}
func (Tick) isEvent()                  {}
func (Fault) isEvent()                 {}
func (Quit) isEvent()                  {}
func (GetFPS) isEvent()                {}
func (GetStats) isEvent()              {}
func (WifiScan) isEvent()              {}
func (WifiConnect) isEvent()           {}
func (WifiStatus) isEvent()            {}
