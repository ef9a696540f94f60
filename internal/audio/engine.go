package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const voiceCount = 16

// ActiveNote is one row of AudioStatus.active_notes (§4.4).
type ActiveNote struct {
	NoteID        uint32
	FrequencyHz   float64
	Amplitude     float64
	Waveform      Waveform
	EnvelopeState EnvelopeState
	HoldState     HoldState
}

// Status is AudioStatus, produced on demand for StatusGet.
type Status struct {
	ActiveNotes []ActiveNote
	SampleRate  int
	DeviceName  string
}

// Engine owns the voice pool and the command ring feeding it. It is safe
// for one goroutine to call Render while any number of goroutines call
// Enqueue/EnqueueNoteOn/EnqueueNoteOff concurrently.
type Engine struct {
	ring       *CommandRing
	voices     [voiceCount]VoiceSlot
	sampleRate int
	deviceName string

	orderCounter atomic.Uint64
	nextNoteID   atomic.Uint32 // allocator for NoteOn requests with note_id 0

	statusMu sync.Mutex // guards voice identity fields shared between Render and Status

	MasterGainPercent float64 // volume_percent; mix is scaled by this/100
}

// NewEngine constructs a stopped engine at the given sample rate, with
// every voice slot initially free.
func NewEngine(sampleRate int, deviceName string) *Engine {
	e := &Engine{
		ring:              NewCommandRing(),
		sampleRate:        sampleRate,
		deviceName:        deviceName,
		MasterGainPercent: 100,
	}
	for i := range e.voices {
		e.voices[i].voiceIndex = i
	}
	e.ring.AllowMultiProducer = true
	return e
}

// OnDroppedCommand forwards to the underlying ring's drop callback, for
// warn-level logging of overflow per §4.4.
func (e *Engine) OnDroppedCommand(fn func(Command)) { e.ring.OnDropped(fn) }

// EnqueueNoteOn resolves note_id 0 to a freshly allocated id, then pushes a
// NoteOn command onto the ring. It returns the resolved id and false if the
// ring was full (the caller should log at warn, never treat it as an error).
func (e *Engine) EnqueueNoteOn(p NoteOnParams) (uint32, bool) {
	if p.NoteID == 0 {
		p.NoteID = e.nextNoteID.Add(1)
	}
	return p.NoteID, e.ring.Push(Command{Kind: CommandNoteOn, NoteOn: p})
}

// EnqueueNoteOff pushes a NoteOff command; noteID 0 releases every voice.
func (e *Engine) EnqueueNoteOff(noteID uint32) bool {
	return e.ring.Push(Command{Kind: CommandNoteOff, NoteID: noteID})
}

// drainCommands applies every pending ring command to the voice pool. Must
// run on the render thread only.
func (e *Engine) drainCommands() {
	e.ring.Drain(func(cmd Command) {
		switch cmd.Kind {
		case CommandNoteOn:
			e.applyNoteOn(cmd.NoteOn)
		case CommandNoteOff:
			e.applyNoteOff(cmd.NoteID)
		}
	})
}

// applyNoteOn implements the three-step allocation policy from §4.4:
// retrigger in place, else a free slot, else steal (Releasing-oldest first,
// then Held-oldest). p.NoteID is always nonzero by this point; EnqueueNoteOn
// resolves a requested id of 0 before the command reaches the ring.
func (e *Engine) applyNoteOn(p NoteOnParams) {
	sampleRate := float64(e.sampleRate)

	for i := range e.voices {
		if e.voices[i].active && e.voices[i].noteID == p.NoteID {
			e.voices[i].retrigger(p, e.nextOrder(), sampleRate)
			return
		}
	}

	for i := range e.voices {
		if !e.voices[i].active {
			e.voices[i].retrigger(p, e.nextOrder(), sampleRate)
			return
		}
	}

	target := e.chooseSteal()
	e.voices[target].retrigger(p, e.nextOrder(), sampleRate)
}

// chooseSteal picks the slot to overwrite when the pool is full: the
// smallest-start_order Releasing slot if any exist, else the
// smallest-start_order Held slot.
func (e *Engine) chooseSteal() int {
	bestReleasing, bestReleasingOrder := -1, uint64(0)
	bestHeld, bestHeldOrder := -1, uint64(0)

	for i := range e.voices {
		v := &e.voices[i]
		if v.holdState == HoldReleasing {
			if bestReleasing == -1 || v.startOrder < bestReleasingOrder {
				bestReleasing, bestReleasingOrder = i, v.startOrder
			}
		} else {
			if bestHeld == -1 || v.startOrder < bestHeldOrder {
				bestHeld, bestHeldOrder = i, v.startOrder
			}
		}
	}

	if bestReleasing != -1 {
		return bestReleasing
	}
	return bestHeld
}

func (e *Engine) nextOrder() uint64 {
	return e.orderCounter.Add(1)
}

// applyNoteOff releases one voice, or every voice when noteID is 0.
// Addressing a missing id is silently dropped per §4.4.
func (e *Engine) applyNoteOff(noteID uint32) {
	if noteID == 0 {
		for i := range e.voices {
			e.voices[i].release()
		}
		return
	}
	for i := range e.voices {
		if e.voices[i].active && e.voices[i].noteID == noteID {
			e.voices[i].release()
			return
		}
	}
}

// Render drains pending commands and writes one callback buffer's worth of
// mixed, clamped, master-gain-scaled, channel-duplicated samples. Only the
// render thread may call this.
func (e *Engine) Render(out []float32, channels int) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.drainCommands()

	gain := e.MasterGainPercent / 100
	frames := len(out) / channels
	for f := 0; f < frames; f++ {
		var mix float64
		for i := range e.voices {
			mix += e.voices[i].advance(float64(e.sampleRate))
		}
		mix *= gain
		if mix > 1 {
			mix = 1
		} else if mix < -1 {
			mix = -1
		}
		sample := float32(mix)
		base := f * channels
		for c := 0; c < channels; c++ {
			out[base+c] = sample
		}
	}
}

// RenderS16 renders into a signed-16 buffer by converting Render's float32
// output, for devices opened in s16 native-endian format.
func (e *Engine) RenderS16(out []int16, channels int) {
	floats := make([]float32, len(out))
	e.Render(floats, channels)
	for i, v := range floats {
		out[i] = float32ToS16(v)
	}
}

func float32ToS16(v float32) int16 {
	scaled := v * 32767
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

// Status snapshots every active voice for StatusGet. It is safe to call
// concurrently with Render, but the returned set may be one render buffer
// stale.
func (e *Engine) Status() Status {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	st := Status{SampleRate: e.sampleRate, DeviceName: e.deviceName}
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		st.ActiveNotes = append(st.ActiveNotes, ActiveNote{
			NoteID:        v.noteID,
			FrequencyHz:   v.frequencyHz,
			Amplitude:     v.amplitude,
			Waveform:      v.waveform,
			EnvelopeState: v.envPhase,
			HoldState:     v.holdState,
		})
	}
	return st
}

// SampleFormat enumerates the device sample formats the engine can
// produce; anything else is a start-time error per §4.4.
type SampleFormat int

const (
	SampleFormatFloat32 SampleFormat = iota
	SampleFormatS16
)

// ValidateSampleFormat rejects any format other than float32 or s16 native
// endian, matching the device-open policy's format check.
func ValidateSampleFormat(f SampleFormat) error {
	switch f {
	case SampleFormatFloat32, SampleFormatS16:
		return nil
	default:
		return fmt.Errorf("unsupported audio sample format %v", f)
	}
}
