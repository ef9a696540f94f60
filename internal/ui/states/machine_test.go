package states

import "testing"

type fakeLink struct {
	noteOns  []uint32
	noteOffs []uint32
}

func (f *fakeLink) Connected() bool { return true }
func (f *fakeLink) SendNoteOn(noteID uint32, frequencyHz, amplitude float64) error {
	f.noteOns = append(f.noteOns, noteID)
	return nil
}
func (f *fakeLink) SendNoteOff(noteID uint32) error {
	f.noteOffs = append(f.noteOffs, noteID)
	return nil
}

func newTestMachine() (*fakeLink, *Context, *stepper) {
	link := &fakeLink{}
	ctx := &Context{Link: link}
	m := NewMachine(ctx)
	return link, ctx, &stepper{m}
}

// stepper exists only to shorten repeated Post+Step pairs in these tests.
type stepperMachine interface {
	Post(Event)
	Step() bool
	StateName() string
}

type stepper struct{ m stepperMachine }

func (s *stepper) do(e Event) {
	s.m.Post(e)
	s.m.Step()
}

func TestStartupToStartMenuViaConnect(t *testing.T) {
	_, _, s := newTestMachine()
	s.do(ServerConnected{})
	if s.m.StateName() != "StartMenu" {
		t.Fatalf("expected StartMenu via Startup->Disconnected->StartMenu, got %s", s.m.StateName())
	}
}

func TestDisconnectReturnsFromAnyState(t *testing.T) {
	_, _, s := newTestMachine()
	s.do(ServerConnected{})
	s.do(EnterSynth{})
	if s.m.StateName() != "Synth" {
		t.Fatalf("expected Synth, got %s", s.m.StateName())
	}
	s.do(ServerDisconnected{})
	if s.m.StateName() != "Disconnected" {
		t.Fatalf("expected Disconnected, got %s", s.m.StateName())
	}
}

func TestSynthRejectsNonPositiveDuration(t *testing.T) {
	link, _, s := newTestMachine()
	s.do(ServerConnected{})
	s.do(EnterSynth{})

	s.do(KeyDown{NoteID: 1, FrequencyHz: 440, Amplitude: 0.5, DurationMS: 0})
	if len(link.noteOns) != 0 {
		t.Fatal("expected duration_ms<=0 to be rejected at the UI boundary")
	}

	s.do(KeyDown{NoteID: 1, FrequencyHz: 440, Amplitude: 0.5, DurationMS: 250})
	if len(link.noteOns) != 1 {
		t.Fatal("expected a valid KeyDown to forward NoteOn")
	}
}

func TestSynthExitSendsNoteOffForHeldNote(t *testing.T) {
	link, ctx, s := newTestMachine()
	s.do(ServerConnected{})
	s.do(EnterSynth{})
	s.do(KeyDown{NoteID: 7, FrequencyHz: 440, Amplitude: 0.5, DurationMS: 250})
	if ctx.HeldNoteID != 7 {
		t.Fatal("expected HeldNoteID to track the active key")
	}

	s.do(Back{})
	if s.m.StateName() != "StartMenu" {
		t.Fatalf("expected StartMenu, got %s", s.m.StateName())
	}
	if len(link.noteOffs) != 1 || link.noteOffs[0] != 7 {
		t.Fatalf("expected NoteOff(7) sent on Synth exit, got %v", link.noteOffs)
	}
}
