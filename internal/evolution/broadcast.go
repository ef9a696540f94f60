package evolution

import (
	"github.com/aortez/dirtsim/internal/render"
	"github.com/aortez/dirtsim/internal/world"
)

// BestSnapshot is TrainingBestSnapshot: pushed whenever a new all-time-best
// fitness is reached.
type BestSnapshot struct {
	World       *world.Data
	OrganismIDs []uint8
	Fitness     float64
	Generation  int
	VideoFrame  *world.ScenarioVideoFrame
}

// Pack adapts a BestSnapshot to render.Broadcaster's Packable contract so
// it can be pushed through the same fire-and-forget path as regular
// simulation frames.
func (b BestSnapshot) Pack(format render.Format) render.RenderMessage {
	w := b.World
	if w == nil {
		w = world.NewData(0, 0)
	}
	w.ScenarioVideoFrame = b.VideoFrame
	return render.Packer{}.Pack(w, format)
}

// PushBestSnapshot broadcasts a new all-time-best result to every
// subscriber, fire-and-forget.
func PushBestSnapshot(b *render.Broadcaster, scenarioID string, snap BestSnapshot) {
	if b == nil {
		return
	}
	b.Broadcast(scenarioID, nil, snap)
}

// PushBestPlaybackFrame replays one frame of the best genome's world,
// broadcast through the same path as BestSnapshot.
func PushBestPlaybackFrame(b *render.Broadcaster, scenarioID string, w *world.Data) {
	if b == nil {
		return
	}
	b.Broadcast(scenarioID, nil, worldPackable{w})
}

type worldPackable struct{ w *world.Data }

func (p worldPackable) Pack(format render.Format) render.RenderMessage {
	return render.Packer{}.Pack(p.w, format)
}
