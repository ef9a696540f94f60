package opsui

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

const (
	dialTimeout  = 500 * time.Millisecond
	replyTimeout = 500 * time.Millisecond
	pollInterval = 1 * time.Second
)

// Run connects to each target on its own short-lived connection once per
// poll tick and drives a bubbletea program showing which are reachable. It
// blocks until the operator quits.
func Run(targets []Target) error {
	t := newFleetTUI()
	go pollFleet(t, targets)
	return t.run()
}

func pollFleet(t *fleetTUI, targets []Target) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	t.push(pollOnce(targets))
	for {
		select {
		case <-ticker.C:
			t.push(pollOnce(targets))
		case <-t.quitChan:
			return
		}
	}
}

func pollOnce(targets []Target) []memberStatus {
	out := make([]memberStatus, 0, len(targets))
	for _, target := range targets {
		out = append(out, pollOne(target))
	}
	return out
}

func pollOne(target Target) memberStatus {
	svc := wsnet.New(dispatch.NewTable(), nil)
	if err := svc.Connect(target.Address, dialTimeout); err != nil {
		return memberStatus{Label: target.Label, Address: target.Address, Err: err.Error()}
	}
	defer svc.CloseClient()

	req, err := json.Marshal(map[string]any{"command": "StatusGet"})
	if err != nil {
		return memberStatus{Label: target.Label, Address: target.Address, Err: err.Error()}
	}

	raw, err := svc.SendJSON(req, replyTimeout)
	if err != nil {
		return memberStatus{Label: target.Label, Address: target.Address, Err: err.Error()}
	}

	var reply struct {
		Value map[string]any `json:"value"`
		Error string         `json:"error"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return memberStatus{Label: target.Label, Address: target.Address, Err: err.Error()}
	}
	if reply.Error != "" {
		return memberStatus{Label: target.Label, Address: target.Address, Err: reply.Error}
	}

	return memberStatus{Label: target.Label, Address: target.Address, Connected: true, State: summarizeStatus(target.Label, reply.Value)}
}

// summarizeStatus picks the most relevant field out of each process's own
// StatusGet shape (§4.2/§4.4/§4.5/§4.7 each report different things) for a
// one-line fleet-view summary.
func summarizeStatus(label string, value map[string]any) string {
	switch label {
	case "server":
		if v, ok := value["scenario_id"].(string); ok && v != "" {
			return "scenario " + v
		}
		return "idle"
	case "audio":
		if notes, ok := value["active_notes"].([]any); ok {
			return fmt.Sprintf("%d active notes", len(notes))
		}
	case "ui":
		if v, ok := value["state"].(string); ok {
			return v
		}
	}
	return "reachable"
}
