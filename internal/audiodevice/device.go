// Package audiodevice implements the audio process's device-open policy
// (§4.4): try a configured device name (with no fallback if it fails), else
// USB-named then default outputs, else fall back to a null "dummy" driver so
// the engine can run headless.
package audiodevice

import "github.com/aortez/dirtsim/internal/audio"

// Device is the engine's real-time output sink. Write is called from the
// render thread and must not allocate on the hot path beyond what the
// caller already provides.
type Device interface {
	Name() string
	SampleRate() int
	Channels() int
	// Write pushes one callback buffer of interleaved samples, blocking
	// until accepted by the underlying backend.
	Write(samples []int16) error
	Close() error
}

// OpenOptions configures device selection.
type OpenOptions struct {
	// ConfiguredName, if non-empty, is tried first and exclusively: a
	// failure to open it is not followed by fallback (the operator asked
	// for a specific device).
	ConfiguredName string
	SampleRate     int
	Channels       int
}

// candidateNames is the enumeration order used when no device name was
// configured: USB-named outputs first (a physical synth's USB audio
// interface is preferred over a motherboard's onboard codec), then
// whatever the platform calls its default.
var candidateNames = []string{"usb", "default"}

// Open implements the device-open policy from §4.4: configured name first;
// else enumerate outputs preferring USB-named devices; else, if no name was
// ever requested, fall back to NullDevice so the engine can run headless.
// Open performs no sample-format check of its own; every Device here takes
// interleaved s16 samples (see Write).
func Open(opts OpenOptions) (Device, error) {
	if opts.ConfiguredName != "" {
		return newOtoDevice(opts.ConfiguredName, opts.SampleRate, opts.Channels)
	}

	for _, name := range candidateNames {
		dev, err := newOtoDevice(name, opts.SampleRate, opts.Channels)
		if err == nil {
			return dev, nil
		}
	}

	return NewNullDevice(opts.SampleRate, opts.Channels), nil
}

// CandidateNames reports the device-open policy's enumeration order (§4.4's
// "list-devices"). oto v3 exposes no real per-host device enumeration API,
// so this is the policy's own candidate chain rather than a live hardware
// scan; "null" is appended since the headless fallback is itself always a
// selectable target.
func CandidateNames() []string {
	names := make([]string, 0, len(candidateNames)+1)
	names = append(names, candidateNames...)
	return append(names, "null")
}

// RenderInto pulls one buffer's worth of samples from e and writes them to
// dev, for a caller driving its own callback loop (e.g. a ticker or an oto
// player pull).
func RenderInto(e *audio.Engine, dev Device, frameCount int) error {
	buf := make([]int16, frameCount*dev.Channels())
	e.RenderS16(buf, dev.Channels())
	return dev.Write(buf)
}
