package audiodevice

// NullDevice discards every written buffer, backing headless test runs and
// the SDL_AUDIODRIVER=dummy-equivalent path in the device-open policy.
type NullDevice struct {
	name       string
	sampleRate int
	channels   int
	written    int
}

// NewNullDevice constructs a device that accepts and discards all writes.
func NewNullDevice(sampleRate, channels int) *NullDevice {
	return &NullDevice{name: "dummy", sampleRate: sampleRate, channels: channels}
}

func (n *NullDevice) Name() string    { return n.name }
func (n *NullDevice) SampleRate() int { return n.sampleRate }
func (n *NullDevice) Channels() int   { return n.channels }

func (n *NullDevice) Write(samples []int16) error {
	n.written += len(samples)
	return nil
}

func (n *NullDevice) Close() error { return nil }

// Written reports the total sample count accepted so far, for tests that
// want to assert the engine is actually being driven.
func (n *NullDevice) Written() int { return n.written }
