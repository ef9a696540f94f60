package audio

import (
	"bytes"

	"github.com/aortez/dirtsim/pkg/envelope"
)

// Wire command/response types for the audio process's command table
// (§4.4's NoteOn/NoteOff/StatusGet), mirroring the Result<T,ApiError>
// convention the physics server's command table uses.

func resultEncoder[T any](encodeValue func(*envelope.Writer, T)) func(envelope.Result[T]) []byte {
	return func(res envelope.Result[T]) []byte {
		buf := new(bytes.Buffer)
		w := envelope.NewWriter(buf)
		envelope.EncodeResult(w, res, encodeValue)
		return w.Bytes()
	}
}

type NoteOnCmd struct {
	NoteID      uint32
	FrequencyHz float64
	Amplitude   float64
	AttackS     float64
	DurationS   float64
	ReleaseS    float64
	Waveform    Waveform
}

type AckResp struct{}

// NoteOnResp carries back the resolved note_id (§4.4: a requested id of 0
// allocates a fresh one), so a caller that asked for 0 can later address the
// voice with NoteOff.
type NoteOnResp struct{ NoteID uint32 }

func encodeNoteOnValue(w *envelope.Writer, r NoteOnResp) { w.WriteUint32(r.NoteID) }

var EncodeNoteOnResp = resultEncoder(encodeNoteOnValue)

func DecodeNoteOnResp(b []byte) (envelope.Result[NoteOnResp], error) {
	r := envelope.NewReader(bytes.NewReader(b))
	return envelope.DecodeResult(r, func(r *envelope.Reader) (NoteOnResp, error) {
		id, err := r.ReadUint32()
		return NoteOnResp{NoteID: id}, err
	})
}

func DecodeNoteOnCmd(b []byte) (NoteOnCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	var c NoteOnCmd
	var err error
	if c.NoteID, err = r.ReadUint32(); err != nil {
		return c, err
	}
	if c.FrequencyHz, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	if c.Amplitude, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	if c.AttackS, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	if c.DurationS, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	if c.ReleaseS, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	waveform, err := r.ReadUint8()
	if err != nil {
		return c, err
	}
	c.Waveform = Waveform(waveform)
	return c, nil
}

func EncodeNoteOnCmd(c NoteOnCmd) []byte {
	buf := new(bytes.Buffer)
	w := envelope.NewWriter(buf)
	w.WriteUint32(c.NoteID)
	w.WriteFloat64(c.FrequencyHz)
	w.WriteFloat64(c.Amplitude)
	w.WriteFloat64(c.AttackS)
	w.WriteFloat64(c.DurationS)
	w.WriteFloat64(c.ReleaseS)
	w.WriteUint8(uint8(c.Waveform))
	return w.Bytes()
}

func encodeAckValue(w *envelope.Writer, _ AckResp) {}

var EncodeAckResp = resultEncoder(encodeAckValue)

type NoteOffCmd struct{ NoteID uint32 }

func DecodeNoteOffCmd(b []byte) (NoteOffCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	id, err := r.ReadUint32()
	if err != nil {
		return NoteOffCmd{}, err
	}
	return NoteOffCmd{NoteID: id}, nil
}

func EncodeNoteOffCmd(c NoteOffCmd) []byte {
	buf := new(bytes.Buffer)
	w := envelope.NewWriter(buf)
	w.WriteUint32(c.NoteID)
	return w.Bytes()
}

type StatusGetCmd struct{}

func DecodeStatusGetCmd(b []byte) (StatusGetCmd, error) { return StatusGetCmd{}, nil }

type StatusGetResp struct {
	ActiveNotes []ActiveNote
	SampleRate  int32
	DeviceName  string
}

func encodeStatusGetValue(w *envelope.Writer, r StatusGetResp) {
	envelope.WriteSeq(w, r.ActiveNotes, func(w *envelope.Writer, n ActiveNote) {
		w.WriteUint32(n.NoteID)
		w.WriteFloat64(n.FrequencyHz)
		w.WriteFloat64(n.Amplitude)
		w.WriteUint8(uint8(n.Waveform))
		w.WriteUint8(uint8(n.EnvelopeState))
		w.WriteUint8(uint8(n.HoldState))
	})
	w.WriteInt32(r.SampleRate)
	w.WriteString(r.DeviceName)
}

var EncodeStatusGetResp = resultEncoder(encodeStatusGetValue)

func DecodeStatusGetResp(b []byte) (envelope.Result[StatusGetResp], error) {
	r := envelope.NewReader(bytes.NewReader(b))
	return envelope.DecodeResult(r, func(r *envelope.Reader) (StatusGetResp, error) {
		var resp StatusGetResp
		notes, err := envelope.ReadSeq(r, func(r *envelope.Reader) (ActiveNote, error) {
			var n ActiveNote
			var err error
			if n.NoteID, err = r.ReadUint32(); err != nil {
				return n, err
			}
			if n.FrequencyHz, err = r.ReadFloat64(); err != nil {
				return n, err
			}
			if n.Amplitude, err = r.ReadFloat64(); err != nil {
				return n, err
			}
			waveform, err := r.ReadUint8()
			if err != nil {
				return n, err
			}
			n.Waveform = Waveform(waveform)
			env, err := r.ReadUint8()
			if err != nil {
				return n, err
			}
			n.EnvelopeState = EnvelopeState(env)
			hold, err := r.ReadUint8()
			if err != nil {
				return n, err
			}
			n.HoldState = HoldState(hold)
			return n, nil
		})
		if err != nil {
			return resp, err
		}
		resp.ActiveNotes = notes
		if resp.SampleRate, err = r.ReadInt32(); err != nil {
			return resp, err
		}
		if resp.DeviceName, err = r.ReadString(); err != nil {
			return resp, err
		}
		return resp, nil
	})
}

// ListDevicesCmd/Resp back the CLI's "list-devices" enumeration (§6).
type ListDevicesCmd struct{}

func DecodeListDevicesCmd(b []byte) (ListDevicesCmd, error) { return ListDevicesCmd{}, nil }

type ListDevicesResp struct {
	Names   []string
	Current string
}

func encodeListDevicesValue(w *envelope.Writer, r ListDevicesResp) {
	envelope.WriteSeq(w, r.Names, func(w *envelope.Writer, s string) { w.WriteString(s) })
	w.WriteString(r.Current)
}

var EncodeListDevicesResp = resultEncoder(encodeListDevicesValue)
