package ui

import "testing"

func TestDispatchJSONStatusGet(t *testing.T) {
	p := New(Config{})

	value, apiErr := p.dispatchJSON("StatusGet", nil)
	if apiErr != nil {
		t.Fatalf("StatusGet: %v", apiErr)
	}
	m := value.(map[string]any)
	if m["state"] != p.machine.StateName() {
		t.Errorf("state = %v, want %v", m["state"], p.machine.StateName())
	}
	if m["frames_received"] != uint64(0) {
		t.Errorf("frames_received = %v, want 0", m["frames_received"])
	}
}

func TestDispatchJSONScreenshotUnavailable(t *testing.T) {
	p := New(Config{})

	_, apiErr := p.dispatchJSON("Screenshot", nil)
	if apiErr == nil {
		t.Fatal("expected Screenshot to fail: headless UI process has no widget renderer")
	}
}

func TestDispatchJSONUnknownCommand(t *testing.T) {
	p := New(Config{})

	_, apiErr := p.dispatchJSON("NoSuchCommand", nil)
	if apiErr == nil {
		t.Fatal("expected an error for an unrecognized JSON command")
	}
}
