// Package envelope implements DirtSim's length-delimited binary message
// envelope and its JSON bridge. Every command, response, and push event
// crosses a WebSocket as one envelope.
package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Kind discriminates the three envelope shapes carried over the wire.
type Kind uint32

const (
	KindCommand Kind = iota
	KindResponse
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "Command"
	case KindResponse:
		return "Response"
	case KindEvent:
		return "Event"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

// PushCorrelationID is reserved for push (broadcast) messages; no waiter is
// ever registered for it.
const PushCorrelationID uint64 = 0

// Envelope is the on-wire container: correlation id, kind, declared command
// name, and an opaque structurally-encoded payload.
type Envelope struct {
	CorrelationID uint64
	Kind          Kind
	Name          string
	Payload       []byte
}

// Encode writes the envelope in binary form: u64 correlation id, u32 kind,
// length-prefixed name, length-prefixed payload. All scalars little-endian.
func (e Envelope) Encode() []byte {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)
	w.WriteUint64(e.CorrelationID)
	w.WriteUint32(uint32(e.Kind))
	w.WriteString(e.Name)
	w.WriteBytes(e.Payload)
	return buf.Bytes()
}

// Decode parses a binary frame into an Envelope. It returns an error for any
// frame that is too short or carries an unknown kind; callers must drop the
// connection on error per the protocol's failure-mode contract.
func Decode(frame []byte) (Envelope, error) {
	r := NewReader(bytes.NewReader(frame))

	corrID, err := r.ReadUint64()
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: frame too short reading correlation id: %w", err)
	}
	rawKind, err := r.ReadUint32()
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: frame too short reading kind: %w", err)
	}
	kind := Kind(rawKind)
	if kind != KindCommand && kind != KindResponse && kind != KindEvent {
		return Envelope{}, fmt.Errorf("envelope: unknown kind %d", rawKind)
	}
	name, err := r.ReadString()
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: frame too short reading name: %w", err)
	}
	payload, err := r.ReadBytes()
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: frame too short reading payload: %w", err)
	}

	return Envelope{CorrelationID: corrID, Kind: kind, Name: name, Payload: payload}, nil
}

// Writer encodes the primitive structural-encoding rules from the protocol
// spec: little-endian scalars, bool as one byte, length-prefixed
// strings/sequences with a u32 count.
type Writer struct {
	buf *bytes.Buffer
}

func NewWriter(buf *bytes.Buffer) *Writer { return &Writer{buf: buf} }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) WriteUint8(v uint8)   { w.buf.WriteByte(v) }
func (w *Writer) WriteInt8(v int8)     { w.buf.WriteByte(byte(v)) }

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(mathFloat64bits(v)) }
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(mathFloat32bits(v)) }

func (w *Writer) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

// WriteOption encodes Option<T> as (bool present, payload-if-present); the
// caller supplies the arm encoder.
func WriteOption[T any](w *Writer, v *T, encode func(*Writer, T)) {
	if v == nil {
		w.WriteBool(false)
		return
	}
	w.WriteBool(true)
	encode(w, *v)
}

// WriteSeq encodes a sequence as (u32 length, repeated element encoding).
func WriteSeq[T any](w *Writer, items []T, encode func(*Writer, T)) {
	w.WriteUint32(uint32(len(items)))
	for _, item := range items {
		encode(w, item)
	}
}
