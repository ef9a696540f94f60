package server

import (
	"bytes"
	"errors"

	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

var errConnGone = errors.New("server: connection no longer present")

// renderEventName is the push event name carried in every RenderMessageFull
// envelope (§4.6 step 5).
const renderEventName = "RenderMessage"

// wsnetSender adapts a *wsnet.Service into the render.Sender contract so a
// Broadcaster can push frames straight to the connections wsnet owns,
// without either package depending on the other's concrete type.
type wsnetSender struct {
	svc *wsnet.Service
}

func newWSNetSender(svc *wsnet.Service) *wsnetSender {
	return &wsnetSender{svc: svc}
}

// SendPush encodes full and pushes it as an Event envelope to connID. It
// reports an error if the connection is no longer present; the caller
// (Broadcaster) treats that as a cue to drop the subscriber.
func (s *wsnetSender) SendPush(connID render.ConnID, full render.RenderMessageFull) error {
	buf := new(bytes.Buffer)
	w := envelope.NewWriter(buf)
	full.Encode(w)

	env := envelope.Envelope{
		CorrelationID: envelope.PushCorrelationID,
		Kind:          envelope.KindEvent,
		Name:          renderEventName,
		Payload:       w.Bytes(),
	}

	if !s.svc.SendTo(wsnet.ConnID(connID), env) {
		return errConnGone
	}
	return nil
}
