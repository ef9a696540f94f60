package render

import (
	"reflect"
	"testing"

	"github.com/aortez/dirtsim/internal/world"
	"github.com/aortez/dirtsim/pkg/envelope"
)

func encodeDecodeRenderMessage(t *testing.T, msg RenderMessage) RenderMessage {
	t.Helper()
	buf := newTestBuf()
	msg.Encode(envelope.NewWriter(buf))
	got, err := DecodeRenderMessage(envelope.NewReader(newTestReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("DecodeRenderMessage: %v", err)
	}
	return got
}

func TestRenderMessageRoundTripBasic(t *testing.T) {
	data := world.NewData(2, 1)
	data.Set(0, 0, world.Cell{Material: world.MaterialDirt, OrganismID: 3})
	data.Bones = []world.BoneData{{OrganismID: 3, Start: world.Vec2{X: 1, Y: 2}, End: world.Vec2{X: 3, Y: 4}, Thickness: 0.5}}
	data.Entities = []world.Entity{{ID: 7, Kind: "duck", Position: world.Vec2{X: 0.1, Y: 0.2}, Rotation: 1.5}}

	want := Packer{}.Pack(data, FormatBasic)
	got := encodeDecodeRenderMessage(t, want)

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestRenderMessageRoundTripDebugWithOptionals(t *testing.T) {
	data := world.NewData(1, 1)
	data.Bones = []world.BoneData{}
	data.Entities = []world.Entity{}
	data.Set(0, 0, world.Cell{Material: world.MaterialWater, Pressure: 123.4})
	data.TreeVision = &world.TreeSensoryData{Width: 2, Height: 1, Light: []float64{0.1, 0.2}, Moisture: []float64{0.3, 0.4}}
	data.ScenarioVideoFrame = &world.ScenarioVideoFrame{Width: 256, Height: 240, FrameID: 42, Pixels: []uint16{1, 2, 3}}

	want := Packer{}.Pack(data, FormatDebug)
	got := encodeDecodeRenderMessage(t, want)

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestRenderMessageRoundTripWithoutScenarioVideoFrame(t *testing.T) {
	data := world.NewData(1, 1)
	data.Bones = []world.BoneData{}
	data.Entities = []world.Entity{}
	want := Packer{}.Pack(data, FormatBasic)
	if want.ScenarioVideoFrame != nil || want.TreeVision != nil {
		t.Fatal("expected nil optionals for a bare world")
	}
	got := encodeDecodeRenderMessage(t, want)
	if got.ScenarioVideoFrame != nil || got.TreeVision != nil {
		t.Fatal("expected optionals to decode back to nil")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestRenderMessageFullRoundTrip(t *testing.T) {
	data := world.NewData(1, 1)
	data.Bones = []world.BoneData{}
	data.Entities = []world.Entity{}
	want := RenderMessageFull{
		ScenarioID:     "sandbox",
		ScenarioConfig: []byte{1, 2, 3},
		Message:        Packer{}.Pack(data, FormatBasic),
	}

	buf := newTestBuf()
	want.Encode(envelope.NewWriter(buf))
	got, err := DecodeRenderMessageFull(envelope.NewReader(newTestReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("DecodeRenderMessageFull: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}
