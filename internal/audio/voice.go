package audio

import "math"

// HoldState tracks whether a voice is still being held by its owner or is
// winding down toward silence.
type HoldState uint8

const (
	HoldHeld HoldState = iota
	HoldReleasing
)

// EnvelopeState is the coarse phase reported in AudioStatus.
type EnvelopeState uint8

const (
	EnvelopeAttack EnvelopeState = iota
	EnvelopeSustain
	EnvelopeRelease
	EnvelopeIdle
)

// VoiceSlot is one of the 16 polyphonic voices (§4.4). phase carries the
// oscillator's running phase in radians; envLevel is the current linear
// envelope gain applied to the oscillator before summing.
type VoiceSlot struct {
	active        bool
	noteID        uint32
	voiceIndex    int
	startOrder    uint64
	holdState     HoldState
	autoOffFrames int64 // -1 means hold indefinitely

	frequencyHz float64
	amplitude   float64
	waveform    Waveform

	attackS  float64
	releaseS float64

	phase     float64
	envLevel  float64
	envPhase  EnvelopeState
	attackInc float64 // per-frame envLevel increment while attacking
}

// retrigger overwrites the slot's synthesis parameters in place and resets
// its envelope to the beginning of attack, per NoteOn rule 1.
func (v *VoiceSlot) retrigger(p NoteOnParams, startOrder uint64, sampleRate float64) {
	v.active = true
	v.noteID = p.NoteID
	v.startOrder = startOrder
	v.holdState = HoldHeld
	v.autoOffFrames = autoOffFrames(p.DurationS, sampleRate)

	v.frequencyHz = p.FrequencyHz
	v.amplitude = p.Amplitude
	v.waveform = p.Waveform
	v.attackS = p.AttackS
	v.releaseS = p.ReleaseS

	v.envPhase = EnvelopeAttack
	v.envLevel = 0
	v.attackInc = attackIncrement(p.AttackS, sampleRate)
}

func autoOffFrames(durationS, sampleRate float64) int64 {
	if durationS <= 0 {
		return -1
	}
	frames := int64(math.Round(durationS * sampleRate))
	if frames < 1 {
		frames = 1
	}
	return frames
}

func attackIncrement(attackS, sampleRate float64) float64 {
	if attackS <= 0 {
		return 1 // reach full level within the first frame
	}
	frames := attackS * sampleRate
	if frames < 1 {
		frames = 1
	}
	return 1.0 / frames
}

func releaseDecrement(releaseS, sampleRate float64) float64 {
	if releaseS <= 0 {
		return 1
	}
	frames := releaseS * sampleRate
	if frames < 1 {
		frames = 1
	}
	return 1.0 / frames
}

// release transitions the slot's envelope toward silence without clearing
// its identity, per NoteOff behavior.
func (v *VoiceSlot) release() {
	if !v.active {
		return
	}
	v.holdState = HoldReleasing
	v.envPhase = EnvelopeRelease
}

// advance renders one frame's worth of envelope/oscillator progress,
// returning the voice's contribution to the mix. It clears the slot when
// the release envelope reaches zero.
func (v *VoiceSlot) advance(sampleRate float64) float64 {
	if !v.active {
		return 0
	}

	if v.autoOffFrames > 0 {
		v.autoOffFrames--
		if v.autoOffFrames == 0 {
			v.release()
		}
	}

	switch v.envPhase {
	case EnvelopeAttack:
		v.envLevel += v.attackInc
		if v.envLevel >= 1 {
			v.envLevel = 1
			v.envPhase = EnvelopeSustain
		}
	case EnvelopeRelease:
		v.envLevel -= releaseDecrement(v.releaseS, sampleRate)
		if v.envLevel <= 0 {
			v.envLevel = 0
			v.active = false
			v.envPhase = EnvelopeIdle
			return 0
		}
	}

	sample := oscillate(v.waveform, v.phase) * v.amplitude * v.envLevel

	v.phase += 2 * math.Pi * v.frequencyHz / sampleRate
	if v.phase >= 2*math.Pi {
		v.phase -= 2 * math.Pi
	}

	return sample
}

func oscillate(w Waveform, phase float64) float64 {
	switch w {
	case WaveformSquare:
		if math.Sin(phase) >= 0 {
			return 1
		}
		return -1
	case WaveformTriangle:
		return 2 / math.Pi * math.Asin(math.Sin(phase))
	case WaveformSaw:
		return 1 - 2*(phase/(2*math.Pi))
	default: // WaveformSine
		return math.Sin(phase)
	}
}
