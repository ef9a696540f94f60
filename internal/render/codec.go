package render

import (
	"github.com/aortez/dirtsim/internal/world"
	"github.com/aortez/dirtsim/pkg/envelope"
)

// encodeEntity writes the entity's wire form: declared-field-order little-endian
// scalars, matching every other aggregate in this package.
func encodeEntity(w *envelope.Writer, e world.Entity) {
	w.WriteUint32(e.ID)
	w.WriteString(e.Kind)
	w.WriteFloat64(e.Position.X)
	w.WriteFloat64(e.Position.Y)
	w.WriteFloat64(e.Rotation)
}

func decodeEntity(r *envelope.Reader) (world.Entity, error) {
	var e world.Entity
	var err error
	if e.ID, err = r.ReadUint32(); err != nil {
		return e, err
	}
	if e.Kind, err = r.ReadString(); err != nil {
		return e, err
	}
	if e.Position.X, err = r.ReadFloat64(); err != nil {
		return e, err
	}
	if e.Position.Y, err = r.ReadFloat64(); err != nil {
		return e, err
	}
	if e.Rotation, err = r.ReadFloat64(); err != nil {
		return e, err
	}
	return e, nil
}

func encodeBone(w *envelope.Writer, b world.BoneData) {
	w.WriteUint8(b.OrganismID)
	w.WriteFloat64(b.Start.X)
	w.WriteFloat64(b.Start.Y)
	w.WriteFloat64(b.End.X)
	w.WriteFloat64(b.End.Y)
	w.WriteFloat64(b.Thickness)
}

func decodeBone(r *envelope.Reader) (world.BoneData, error) {
	var b world.BoneData
	var err error
	if b.OrganismID, err = r.ReadUint8(); err != nil {
		return b, err
	}
	if b.Start.X, err = r.ReadFloat64(); err != nil {
		return b, err
	}
	if b.Start.Y, err = r.ReadFloat64(); err != nil {
		return b, err
	}
	if b.End.X, err = r.ReadFloat64(); err != nil {
		return b, err
	}
	if b.End.Y, err = r.ReadFloat64(); err != nil {
		return b, err
	}
	if b.Thickness, err = r.ReadFloat64(); err != nil {
		return b, err
	}
	return b, nil
}

func encodeTreeVision(w *envelope.Writer, t world.TreeSensoryData) {
	w.WriteInt32(int32(t.Width))
	w.WriteInt32(int32(t.Height))
	envelope.WriteSeq(w, t.Light, func(w *envelope.Writer, v float64) { w.WriteFloat64(v) })
	envelope.WriteSeq(w, t.Moisture, func(w *envelope.Writer, v float64) { w.WriteFloat64(v) })
}

func decodeTreeVision(r *envelope.Reader) (world.TreeSensoryData, error) {
	var t world.TreeSensoryData
	width, err := r.ReadInt32()
	if err != nil {
		return t, err
	}
	height, err := r.ReadInt32()
	if err != nil {
		return t, err
	}
	t.Width, t.Height = int(width), int(height)
	if t.Light, err = envelope.ReadSeq(r, func(r *envelope.Reader) (float64, error) { return r.ReadFloat64() }); err != nil {
		return t, err
	}
	if t.Moisture, err = envelope.ReadSeq(r, func(r *envelope.Reader) (float64, error) { return r.ReadFloat64() }); err != nil {
		return t, err
	}
	return t, nil
}

func encodeVideoFrame(w *envelope.Writer, f world.ScenarioVideoFrame) {
	w.WriteInt32(int32(f.Width))
	w.WriteInt32(int32(f.Height))
	w.WriteUint64(f.FrameID)
	envelope.WriteSeq(w, f.Pixels, func(w *envelope.Writer, v uint16) { w.WriteUint16(v) })
}

func decodeVideoFrame(r *envelope.Reader) (world.ScenarioVideoFrame, error) {
	var f world.ScenarioVideoFrame
	width, err := r.ReadInt32()
	if err != nil {
		return f, err
	}
	height, err := r.ReadInt32()
	if err != nil {
		return f, err
	}
	f.Width, f.Height = int(width), int(height)
	if f.FrameID, err = r.ReadUint64(); err != nil {
		return f, err
	}
	if f.Pixels, err = envelope.ReadSeq(r, func(r *envelope.Reader) (uint16, error) { return r.ReadUint16() }); err != nil {
		return f, err
	}
	return f, nil
}

func encodeOrganismEntry(w *envelope.Writer, o OrganismEntry) {
	w.WriteUint8(o.OrganismID)
	envelope.WriteSeq(w, o.CellIndex, func(w *envelope.Writer, v uint16) { w.WriteUint16(v) })
}

func decodeOrganismEntry(r *envelope.Reader) (OrganismEntry, error) {
	var o OrganismEntry
	var err error
	if o.OrganismID, err = r.ReadUint8(); err != nil {
		return o, err
	}
	if o.CellIndex, err = envelope.ReadSeq(r, func(r *envelope.Reader) (uint16, error) { return r.ReadUint16() }); err != nil {
		return o, err
	}
	return o, nil
}

// Encode writes the full on-wire RenderMessage per §3/§4.6: format tag,
// dimensions, timestep, the active cell-format payload (never both),
// the sparse organism list, bones, entities, and the two optional trailing
// fields (tree vision, scenario video frame) as Option<T>.
func (m RenderMessage) Encode(w *envelope.Writer) {
	w.WriteUint32(uint32(m.Format))
	w.WriteInt32(int32(m.Width))
	w.WriteInt32(int32(m.Height))
	w.WriteFloat64(m.Timestep)

	switch m.Format {
	case FormatDebug:
		envelope.WriteSeq(w, m.DebugPayload, func(w *envelope.Writer, c DebugCell) { c.Encode(w) })
	default:
		envelope.WriteSeq(w, m.BasicPayload, func(w *envelope.Writer, c BasicCell) { c.Encode(w) })
	}

	envelope.WriteSeq(w, m.Organisms, encodeOrganismEntry)
	envelope.WriteSeq(w, m.Bones, encodeBone)
	envelope.WriteSeq(w, m.Entities, encodeEntity)
	envelope.WriteOption(w, m.TreeVision, func(w *envelope.Writer, t world.TreeSensoryData) { encodeTreeVision(w, t) })
	envelope.WriteOption(w, m.ScenarioVideoFrame, func(w *envelope.Writer, f world.ScenarioVideoFrame) { encodeVideoFrame(w, f) })
}

// DecodeRenderMessage reads back a RenderMessage encoded by Encode.
func DecodeRenderMessage(r *envelope.Reader) (RenderMessage, error) {
	var m RenderMessage
	rawFormat, err := r.ReadUint32()
	if err != nil {
		return m, err
	}
	m.Format = Format(rawFormat)

	width, err := r.ReadInt32()
	if err != nil {
		return m, err
	}
	height, err := r.ReadInt32()
	if err != nil {
		return m, err
	}
	m.Width, m.Height = int(width), int(height)

	if m.Timestep, err = r.ReadFloat64(); err != nil {
		return m, err
	}

	switch m.Format {
	case FormatDebug:
		if m.DebugPayload, err = envelope.ReadSeq(r, DecodeDebugCell); err != nil {
			return m, err
		}
	default:
		if m.BasicPayload, err = envelope.ReadSeq(r, DecodeBasicCell); err != nil {
			return m, err
		}
	}

	if m.Organisms, err = envelope.ReadSeq(r, decodeOrganismEntry); err != nil {
		return m, err
	}
	if m.Bones, err = envelope.ReadSeq(r, decodeBone); err != nil {
		return m, err
	}
	if m.Entities, err = envelope.ReadSeq(r, decodeEntity); err != nil {
		return m, err
	}
	treeVision, err := envelope.ReadOption(r, decodeTreeVision)
	if err != nil {
		return m, err
	}
	m.TreeVision = treeVision
	videoFrame, err := envelope.ReadOption(r, decodeVideoFrame)
	if err != nil {
		return m, err
	}
	m.ScenarioVideoFrame = videoFrame

	return m, nil
}

// Encode writes the scenario-id/config wrapper around a RenderMessage, the
// shape actually pushed as a RenderMessageFull event (§4.6 step 5).
func (f RenderMessageFull) Encode(w *envelope.Writer) {
	w.WriteString(f.ScenarioID)
	w.WriteBytes(f.ScenarioConfig)
	f.Message.Encode(w)
}

// DecodeRenderMessageFull reads back a RenderMessageFull encoded by Encode.
func DecodeRenderMessageFull(r *envelope.Reader) (RenderMessageFull, error) {
	var f RenderMessageFull
	var err error
	if f.ScenarioID, err = r.ReadString(); err != nil {
		return f, err
	}
	if f.ScenarioConfig, err = r.ReadBytes(); err != nil {
		return f, err
	}
	if f.Message, err = DecodeRenderMessage(r); err != nil {
		return f, err
	}
	return f, nil
}
