// Package ui wires the UI process's state machine (internal/ui/states) to
// the two WebSocketServices it depends on: the audio process, for
// NoteOn/NoteOff, and the physics server, for StatusGet/SimRun and the
// RenderMessage push stream. Actual widget rendering is out of scope
// (§1's LVGL layout non-goal); this package drives the protocol only.
package ui

import (
	"bytes"
	"errors"
	"time"

	"github.com/aortez/dirtsim/internal/audio"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

const commandTimeout = 2 * time.Second

// audioLink implements states.ServerLink against the audio process's
// WebSocketService in client mode.
type audioLink struct {
	svc *wsnet.Service
}

func newAudioLink(svc *wsnet.Service) *audioLink { return &audioLink{svc: svc} }

func (l *audioLink) Connected() bool { return l.svc != nil }

func (l *audioLink) SendNoteOn(noteID uint32, frequencyHz, amplitude float64) error {
	cmd := audio.NoteOnCmd{
		NoteID:      noteID,
		FrequencyHz: frequencyHz,
		Amplitude:   amplitude,
		DurationS:   -1, // hold until an explicit NoteOff, per §4.4.
	}
	res, err := wsnet.SendCommand(l.svc, "NoteOn", cmd, audio.EncodeNoteOnCmd, audio.DecodeNoteOnResp, commandTimeout)
	if err != nil {
		return err
	}
	return resultErr(res)
}

func (l *audioLink) SendNoteOff(noteID uint32) error {
	cmd := audio.NoteOffCmd{NoteID: noteID}
	res, err := wsnet.SendCommand(l.svc, "NoteOff", cmd, audio.EncodeNoteOffCmd, decodeAckResult, commandTimeout)
	if err != nil {
		return err
	}
	return resultErr(res)
}

func decodeAckResult(b []byte) (envelope.Result[audio.AckResp], error) {
	r := envelope.NewReader(bytes.NewReader(b))
	return envelope.DecodeResult(r, func(r *envelope.Reader) (audio.AckResp, error) { return audio.AckResp{}, nil })
}

func resultErr[T any](res envelope.Result[T]) error {
	if res.Ok {
		return nil
	}
	return errors.New(res.Err.Message)
}
