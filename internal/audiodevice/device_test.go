package audiodevice

import (
	"testing"

	"github.com/aortez/dirtsim/internal/audio"
)

func TestOpenFallsBackToNullWhenNoNameConfigured(t *testing.T) {
	dev, err := Open(OpenOptions{SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dev.Close()

	if _, ok := dev.(*NullDevice); !ok {
		if dev.SampleRate() != 48000 || dev.Channels() != 2 {
			t.Fatalf("expected device configured at 48000/2, got %d/%d", dev.SampleRate(), dev.Channels())
		}
	}
}

func TestRenderIntoDrivesNullDevice(t *testing.T) {
	dev := NewNullDevice(48000, 1)
	engine := audio.NewEngine(48000, "dummy")
	engine.EnqueueNoteOn(audio.NoteOnParams{NoteID: 1, FrequencyHz: 440, Amplitude: 0.5})

	if err := RenderInto(engine, dev, 256); err != nil {
		t.Fatalf("RenderInto: %v", err)
	}
	if dev.Written() != 256 {
		t.Fatalf("expected 256 samples written, got %d", dev.Written())
	}
}
