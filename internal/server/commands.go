package server

import (
	"bytes"

	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/pkg/envelope"
)

// The command/response payload types in this file are the server's half of
// §4.2's dispatch table: one struct pair per registered name. Every
// response is carried as envelope.Result[T] per §3's "every response
// carries a Result" rule, encoded with the shared EncodeResult helper
// rather than each command inventing its own success/failure shape.

func resultEncoder[T any](encodeValue func(*envelope.Writer, T)) func(envelope.Result[T]) []byte {
	return func(res envelope.Result[T]) []byte {
		buf := new(bytes.Buffer)
		w := envelope.NewWriter(buf)
		envelope.EncodeResult(w, res, encodeValue)
		return w.Bytes()
	}
}

type statusGetCmd struct{}

type statusGetResp struct {
	ScenarioID string
	Width      int32
	Height     int32
	Timestep   float64
}

func decodeStatusGetCmd(b []byte) (statusGetCmd, error) { return statusGetCmd{}, nil }

func encodeStatusGetValue(w *envelope.Writer, r statusGetResp) {
	w.WriteString(r.ScenarioID)
	w.WriteInt32(r.Width)
	w.WriteInt32(r.Height)
	w.WriteFloat64(r.Timestep)
}

var encodeStatusGetResp = resultEncoder(encodeStatusGetValue)

type simRunCmd struct {
	ScenarioID string
	Timestep   float64
	MaxSteps   int32
	MaxFrameMS int32
}

type simRunResp struct{ Running bool }

func decodeSimRunCmd(b []byte) (simRunCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	var c simRunCmd
	var err error
	if c.ScenarioID, err = r.ReadString(); err != nil {
		return c, err
	}
	if c.Timestep, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	if c.MaxSteps, err = r.ReadInt32(); err != nil {
		return c, err
	}
	if c.MaxFrameMS, err = r.ReadInt32(); err != nil {
		return c, err
	}
	return c, nil
}

func encodeSimRunValue(w *envelope.Writer, r simRunResp) { w.WriteBool(r.Running) }

var encodeSimRunResp = resultEncoder(encodeSimRunValue)

type emptyCmd struct{}
type ackResp struct{}

func decodeEmptyCmd(b []byte) (emptyCmd, error) { return emptyCmd{}, nil }

func encodeAckValue(w *envelope.Writer, r ackResp) {}

var encodeAckResp = resultEncoder(encodeAckValue)

type renderFormatSetCmd struct{ Format render.Format }

func decodeRenderFormatSetCmd(b []byte) (renderFormatSetCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	raw, err := r.ReadUint32()
	if err != nil {
		return renderFormatSetCmd{}, err
	}
	return renderFormatSetCmd{Format: render.Format(raw)}, nil
}

var encodeRenderFormatSetResp = resultEncoder(encodeAckValue)

type trainingResultSaveCmd struct{ IDs []string }

type trainingResultSaveResp struct {
	Saved          []string
	DiscardedCount int32
}

func decodeTrainingResultSaveCmd(b []byte) (trainingResultSaveCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	ids, err := envelope.ReadSeq(r, func(r *envelope.Reader) (string, error) { return r.ReadString() })
	if err != nil {
		return trainingResultSaveCmd{}, err
	}
	return trainingResultSaveCmd{IDs: ids}, nil
}

func encodeTrainingResultSaveValue(w *envelope.Writer, r trainingResultSaveResp) {
	envelope.WriteSeq(w, r.Saved, func(w *envelope.Writer, s string) { w.WriteString(s) })
	w.WriteInt32(r.DiscardedCount)
}

var encodeTrainingResultSaveResp = resultEncoder(encodeTrainingResultSaveValue)

type getFPSResp struct{ FPS float64 }

func encodeGetFPSValue(w *envelope.Writer, r getFPSResp) { w.WriteFloat64(r.FPS) }

var encodeGetFPSResp = resultEncoder(encodeGetFPSValue)

type getStatsResp struct {
	FramesRendered uint64
	ScenarioID     string
}

func encodeGetStatsValue(w *envelope.Writer, r getStatsResp) {
	w.WriteUint64(r.FramesRendered)
	w.WriteString(r.ScenarioID)
}

var encodeGetStatsResp = resultEncoder(encodeGetStatsValue)
