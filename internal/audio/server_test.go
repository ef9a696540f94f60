package audio

import (
	"testing"

	"github.com/aortez/dirtsim/internal/audiodevice"
	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dev := audiodevice.NewNullDevice(48000, 1)
	s := &Server{
		config: ServerConfig{SampleRate: 48000, Channels: 1},
		engine: NewEngine(48000, dev.Name()),
		device: dev,
	}
	s.wsService = wsnet.New(dispatch.NewTable(), nil)
	s.registerCommands()
	return s
}

func TestDispatchJSONNoteOnNoteOff(t *testing.T) {
	s := newTestServer(t)

	_, apiErr := s.dispatchJSON("NoteOn", []byte(`{"note_id":7,"frequency_hz":440,"amplitude":0.8}`))
	if apiErr != nil {
		t.Fatalf("NoteOn: %v", apiErr)
	}

	buf := make([]float32, 64)
	s.engine.Render(buf, 1)

	status := s.engine.Status()
	if len(status.ActiveNotes) != 1 || status.ActiveNotes[0].NoteID != 7 {
		t.Fatalf("expected note 7 active, got %+v", status.ActiveNotes)
	}

	_, apiErr = s.dispatchJSON("NoteOff", []byte(`{"note_id":7}`))
	if apiErr != nil {
		t.Fatalf("NoteOff: %v", apiErr)
	}
}

func TestDispatchJSONStatusGet(t *testing.T) {
	s := newTestServer(t)

	value, apiErr := s.dispatchJSON("StatusGet", nil)
	if apiErr != nil {
		t.Fatalf("StatusGet: %v", apiErr)
	}
	m := value.(map[string]any)
	if m["device_name"] != "dummy" {
		t.Errorf("device_name = %v, want dummy", m["device_name"])
	}
	if m["sample_rate"] != 48000 {
		t.Errorf("sample_rate = %v, want 48000", m["sample_rate"])
	}
}

func TestDispatchJSONListDevices(t *testing.T) {
	s := newTestServer(t)

	value, apiErr := s.dispatchJSON("ListDevices", nil)
	if apiErr != nil {
		t.Fatalf("ListDevices: %v", apiErr)
	}
	m := value.(map[string]any)
	names := m["names"].([]string)
	if len(names) == 0 {
		t.Fatal("expected a non-empty candidate device list")
	}
	if names[len(names)-1] != "null" {
		t.Errorf("expected the fallback chain to end in \"null\", got %v", names)
	}
}

func TestDispatchJSONUnknownCommand(t *testing.T) {
	s := newTestServer(t)
	_, apiErr := s.dispatchJSON("NoSuchCommand", nil)
	if apiErr == nil {
		t.Fatal("expected an error for an unrecognized JSON command")
	}
}
