package ui

import (
	"bytes"

	"github.com/aortez/dirtsim/pkg/envelope"
)

// Wire command/response types for the CLI-facing commands this process
// itself serves (§6's "ui" target), carried as envelope.Result[T] per the
// convention internal/server/commands.go established.

func resultEncoder[T any](encodeValue func(*envelope.Writer, T)) func(envelope.Result[T]) []byte {
	return func(res envelope.Result[T]) []byte {
		buf := new(bytes.Buffer)
		w := envelope.NewWriter(buf)
		envelope.EncodeResult(w, res, encodeValue)
		return w.Bytes()
	}
}

type emptyCmd struct{}

func decodeEmptyCmd(b []byte) (emptyCmd, error) { return emptyCmd{}, nil }

type statusResp struct {
	State          string
	FramesReceived uint64
}

var encodeStatusResp = resultEncoder(func(w *envelope.Writer, r statusResp) {
	w.WriteString(r.State)
	w.WriteUint64(r.FramesReceived)
})

type screenshotResp struct{ PNGBase64 string }

var encodeScreenshotResp = resultEncoder(func(w *envelope.Writer, r screenshotResp) {
	w.WriteString(r.PNGBase64)
})
