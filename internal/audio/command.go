package audio

// Waveform selects the oscillator shape for a voice.
type Waveform uint8

const (
	WaveformSine Waveform = iota
	WaveformSquare
	WaveformTriangle
	WaveformSaw
)

// NoteOnParams carries the parameters of a NoteOn command (§4.4).
type NoteOnParams struct {
	NoteID     uint32
	FrequencyHz float64
	Amplitude   float64 // [0,1]
	AttackS     float64
	DurationS   float64 // <= 0 means hold indefinitely
	ReleaseS    float64
	Waveform    Waveform
}

// CommandKind discriminates a Command's payload.
type CommandKind uint8

const (
	CommandNoteOn CommandKind = iota
	CommandNoteOff
)

// Command is one entry in the CommandRing: a NoteOn or a NoteOff (note_id 0
// releases every active voice).
type Command struct {
	Kind   CommandKind
	NoteOn NoteOnParams
	NoteID uint32 // valid for CommandNoteOff
}
