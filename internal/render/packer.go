// Package render packs a world.Data snapshot into the on-wire RenderMessage
// projection and broadcasts it to subscribed UI clients, fire-and-forget.
package render

import (
	"bytes"
	"math"

	"github.com/aortez/dirtsim/internal/world"
	"github.com/aortez/dirtsim/pkg/envelope"
)

// Format selects the cell packing a subscriber receives.
type Format uint32

const (
	FormatBasic Format = iota
	FormatDebug
)

// EncodeFormatSetCmd encodes a RenderFormatSet command payload: the
// requested Format as a single uint32, per §4.2.
func EncodeFormatSetCmd(format Format) []byte {
	buf := new(bytes.Buffer)
	w := envelope.NewWriter(buf)
	w.WriteUint32(uint32(format))
	return w.Bytes()
}

// BasicCell is the compact 7-byte cell packing: material, fill, render_as,
// and a big-endian RGBA color (R<<24|G<<16|B<<8|A — the canonical layout
// resolved in SPEC_FULL.md).
type BasicCell struct {
	Material byte
	Fill     byte
	RenderAs int8
	Color    uint32
}

func (c BasicCell) Encode(w *envelope.Writer) {
	w.WriteUint8(c.Material)
	w.WriteUint8(c.Fill)
	w.WriteInt8(c.RenderAs)
	w.WriteUint32(c.Color)
}

func DecodeBasicCell(r *envelope.Reader) (BasicCell, error) {
	var c BasicCell
	var err error
	if c.Material, err = r.ReadUint8(); err != nil {
		return c, err
	}
	if c.Fill, err = r.ReadUint8(); err != nil {
		return c, err
	}
	if c.RenderAs, err = r.ReadInt8(); err != nil {
		return c, err
	}
	if c.Color, err = r.ReadUint32(); err != nil {
		return c, err
	}
	return c, nil
}

// DebugCell carries quantized physics fields for debug overlays.
// pressure_gradient is carried unquantized (full float64 pair) per spec
// §3; com, velocity, and the two pressure channels are quantized per the
// fixed policy below.
type DebugCell struct {
	Material        byte
	Fill            byte
	RenderAs        int8
	ComX, ComY      int16
	VelX, VelY      int16
	PressureHydro   uint16
	PressureDynamic uint16
	PressureGradX   float64
	PressureGradY   float64
}

func (c DebugCell) Encode(w *envelope.Writer) {
	w.WriteUint8(c.Material)
	w.WriteUint8(c.Fill)
	w.WriteInt8(c.RenderAs)
	w.WriteInt16(c.ComX)
	w.WriteInt16(c.ComY)
	w.WriteInt16(c.VelX)
	w.WriteInt16(c.VelY)
	w.WriteUint16(c.PressureHydro)
	w.WriteUint16(c.PressureDynamic)
	w.WriteFloat64(c.PressureGradX)
	w.WriteFloat64(c.PressureGradY)
}

func DecodeDebugCell(r *envelope.Reader) (DebugCell, error) {
	var c DebugCell
	var err error
	if c.Material, err = r.ReadUint8(); err != nil {
		return c, err
	}
	if c.Fill, err = r.ReadUint8(); err != nil {
		return c, err
	}
	if c.RenderAs, err = r.ReadInt8(); err != nil {
		return c, err
	}
	if c.ComX, err = r.ReadInt16(); err != nil {
		return c, err
	}
	if c.ComY, err = r.ReadInt16(); err != nil {
		return c, err
	}
	if c.VelX, err = r.ReadInt16(); err != nil {
		return c, err
	}
	if c.VelY, err = r.ReadInt16(); err != nil {
		return c, err
	}
	if c.PressureHydro, err = r.ReadUint16(); err != nil {
		return c, err
	}
	if c.PressureDynamic, err = r.ReadUint16(); err != nil {
		return c, err
	}
	if c.PressureGradX, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	if c.PressureGradY, err = r.ReadFloat64(); err != nil {
		return c, err
	}
	return c, nil
}

// Quantization bounds fixed by the spec.
const (
	comRange       = 1.0
	velocityRange  = 10.0
	pressureRange  = 1000.0
	int16FullScale = 32767.0
	uint16FullScale = 65535.0
)

func quantizeSigned(v, rangeMax float64) int16 {
	clamped := math.Max(-rangeMax, math.Min(rangeMax, v))
	return int16(math.Round(clamped / rangeMax * int16FullScale))
}

func dequantizeSigned(q int16, rangeMax float64) float64 {
	return float64(q) / int16FullScale * rangeMax
}

func quantizeUnsigned(v, rangeMax float64) uint16 {
	clamped := math.Max(0, math.Min(rangeMax, v))
	return uint16(math.Round(clamped / rangeMax * uint16FullScale))
}

func dequantizeUnsigned(q uint16, rangeMax float64) float64 {
	return float64(q) / uint16FullScale * rangeMax
}

// QuantizeCom/QuantizeVelocity/QuantizePressure and their Dequantize
// counterparts are exported so tests can verify the round-trip tolerance
// bounds from spec §8 directly.
func QuantizeCom(v float64) int16           { return quantizeSigned(v, comRange) }
func DequantizeCom(q int16) float64         { return dequantizeSigned(q, comRange) }
func QuantizeVelocity(v float64) int16      { return quantizeSigned(v, velocityRange) }
func DequantizeVelocity(q int16) float64    { return dequantizeSigned(q, velocityRange) }
func QuantizePressure(v float64) uint16     { return quantizeUnsigned(v, pressureRange) }
func DequantizePressure(q uint16) float64   { return dequantizeUnsigned(q, pressureRange) }

// dynamicPressure derives a kinetic-pressure channel from velocity, since
// world.Cell carries one scalar Pressure (hydrostatic) but DebugCell wants
// two distinct pressure channels; the physics solver that would produce a
// true dynamic-pressure field is out of scope (§1), so this is a
// deterministic placeholder computed from the cell's own velocity.
func dynamicPressure(c world.Cell) float64 {
	speed := math.Hypot(c.Velocity.X, c.Velocity.Y)
	return 0.5 * speed * speed
}

// OrganismEntry is one element of the sparse organism list: an organism id
// plus the dense cell indices it occupies.
type OrganismEntry struct {
	OrganismID uint8
	CellIndex  []uint16
}

// RenderMessage is the on-wire projection of world.Data for one subscriber.
type RenderMessage struct {
	Format             Format
	Width, Height      int
	Timestep           float64
	BasicPayload       []BasicCell
	DebugPayload       []DebugCell
	Organisms          []OrganismEntry
	Bones              []world.BoneData
	Entities           []world.Entity
	TreeVision         *world.TreeSensoryData
	ScenarioVideoFrame *world.ScenarioVideoFrame
}

// RenderMessageFull wraps a RenderMessage with the scenario identity, per
// §4.6 step 5.
type RenderMessageFull struct {
	ScenarioID     string
	ScenarioConfig []byte // opaque encoded ScenarioConfig variant
	Message        RenderMessage
}

// Packer builds a RenderMessage from a world.Data snapshot.
type Packer struct{}

// Pack projects data into format, including the sparse organism list built
// by walking the organism grid once, per §4.6 step 3.
func (Packer) Pack(data *world.Data, format Format) RenderMessage {
	msg := RenderMessage{
		Format:             format,
		Width:              data.Width,
		Height:             data.Height,
		Timestep:           data.Timestep,
		Bones:              data.Bones,
		Entities:           data.Entities,
		TreeVision:         data.TreeVision,
		ScenarioVideoFrame: data.ScenarioVideoFrame,
	}

	organisms := map[uint8][]uint16{}
	var order []uint8

	switch format {
	case FormatBasic:
		msg.BasicPayload = make([]BasicCell, len(data.Cells))
		for i, c := range data.Cells {
			msg.BasicPayload[i] = BasicCell{
				Material: byte(c.Material),
				Fill:     byte(math.Round(math.Max(0, math.Min(1, c.FillRatio)) * 255)),
				RenderAs: c.RenderAs,
				Color:    materialColor(c.Material),
			}
			recordOrganism(organisms, &order, c.OrganismID, uint16(i))
		}
	case FormatDebug:
		msg.DebugPayload = make([]DebugCell, len(data.Cells))
		for i, c := range data.Cells {
			msg.DebugPayload[i] = DebugCell{
				Material:        byte(c.Material),
				Fill:            byte(math.Round(math.Max(0, math.Min(1, c.FillRatio)) * 255)),
				RenderAs:        c.RenderAs,
				ComX:            QuantizeCom(c.Com.X),
				ComY:            QuantizeCom(c.Com.Y),
				VelX:            QuantizeVelocity(c.Velocity.X),
				VelY:            QuantizeVelocity(c.Velocity.Y),
				PressureHydro:   QuantizePressure(c.Pressure),
				PressureDynamic: QuantizePressure(dynamicPressure(c)),
				PressureGradX:   c.PressureGradient.X,
				PressureGradY:   c.PressureGradient.Y,
			}
			recordOrganism(organisms, &order, c.OrganismID, uint16(i))
		}
	}

	msg.Organisms = make([]OrganismEntry, 0, len(order))
	for _, id := range order {
		msg.Organisms = append(msg.Organisms, OrganismEntry{OrganismID: id, CellIndex: organisms[id]})
	}

	return msg
}

func recordOrganism(organisms map[uint8][]uint16, order *[]uint8, organismID uint8, cellIndex uint16) {
	if organismID == 0 {
		return
	}
	if _, seen := organisms[organismID]; !seen {
		*order = append(*order, organismID)
	}
	organisms[organismID] = append(organisms[organismID], cellIndex)
}

// materialColor is a fixed palette; actual sprite/tile art is out of scope
// (§1), this only needs to be a stable, canonical color per material so the
// Basic payload round-trips deterministically.
func materialColor(m world.Material) uint32 {
	palette := [...]uint32{
		world.MaterialAir:   0x00000000,
		world.MaterialDirt:  0x8B4513FF,
		world.MaterialWater: 0x1E90FFFF,
		world.MaterialSand:  0xC2B280FF,
		world.MaterialRock:  0x808080FF,
		world.MaterialClay:  0xB66A50FF,
		world.MaterialMud:   0x6B4423FF,
		world.MaterialSeed:  0x556B2FFF,
		world.MaterialRoot:  0x8B5A2BFF,
		world.MaterialIce:   0xADD8E6FF,
	}
	if int(m) < len(palette) {
		return palette[m]
	}
	return 0
}
