package audiodevice

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
)

// otoDevice streams samples to the host's default audio output via a pipe
// feeding a persistent oto.Player, adapted from the teacher's output.Oto.
// oto v3 exposes no device enumeration API; "name" is accepted for the
// USB-preferred candidate ordering in Open but oto itself always opens the
// platform default output.
type otoDevice struct {
	name       string
	sampleRate int
	channels   int

	ctx        *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
}

func newOtoDevice(name string, sampleRate, channels int) (Device, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device %q: %w", name, err)
	}
	<-readyChan

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	return &otoDevice{
		name:       name,
		sampleRate: sampleRate,
		channels:   channels,
		ctx:        ctx,
		player:     player,
		pipeReader: pr,
		pipeWriter: pw,
	}, nil
}

func (o *otoDevice) Name() string    { return o.name }
func (o *otoDevice) SampleRate() int { return o.sampleRate }
func (o *otoDevice) Channels() int   { return o.channels }

func (o *otoDevice) Write(samples []int16) error {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	if _, err := o.pipeWriter.Write(out); err != nil {
		return fmt.Errorf("audio device write: %w", err)
	}
	return nil
}

func (o *otoDevice) Close() error {
	_ = o.pipeWriter.Close()
	o.player.Close()
	_ = o.pipeReader.Close()
	o.ctx.Suspend()
	return nil
}
