package envelope

import (
	"bytes"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	cases := []Envelope{
		{CorrelationID: 0, Kind: KindEvent, Name: "RenderMessage", Payload: []byte{1, 2, 3}},
		{CorrelationID: 42, Kind: KindCommand, Name: "StatusGet", Payload: nil},
		{CorrelationID: 7, Kind: KindResponse, Name: "NoteOn", Payload: bytes.Repeat([]byte{0xAB}, 256)},
	}

	for _, want := range cases {
		frame := want.Encode()
		got, err := Decode(frame)
		if err != nil {
			t.Fatalf("Decode(%+v): %v", want, err)
		}
		if got.CorrelationID != want.CorrelationID || got.Kind != want.Kind || got.Name != want.Name {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
		if !bytes.Equal(got.Payload, want.Payload) {
			t.Fatalf("payload mismatch: got %v, want %v", got.Payload, want.Payload)
		}
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	e := Envelope{CorrelationID: 1, Kind: Kind(99), Name: "x"}
	frame := e.Encode()
	if _, err := Decode(frame); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short frame")
	}
}

func TestOptionRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)

	var present *int32
	v := int32(7)
	present = &v
	WriteOption(w, present, func(w *Writer, x int32) { w.WriteInt32(x) })
	WriteOption[int32](w, nil, func(w *Writer, x int32) { w.WriteInt32(x) })

	r := NewReader(bytes.NewReader(buf.Bytes()))
	got1, err := ReadOption(r, func(r *Reader) (int32, error) { return r.ReadInt32() })
	if err != nil || got1 == nil || *got1 != 7 {
		t.Fatalf("expected present option 7, got %v err %v", got1, err)
	}
	got2, err := ReadOption(r, func(r *Reader) (int32, error) { return r.ReadInt32() })
	if err != nil || got2 != nil {
		t.Fatalf("expected absent option, got %v err %v", got2, err)
	}
}

func TestSeqRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)
	items := []uint16{1, 2, 3, 65535}
	WriteSeq(w, items, func(w *Writer, v uint16) { w.WriteUint16(v) })

	r := NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadSeq(r, func(r *Reader) (uint16, error) { return r.ReadUint16() })
	if err != nil {
		t.Fatalf("ReadSeq: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(items))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Fatalf("item %d mismatch: got %d want %d", i, got[i], items[i])
		}
	}
}

func TestResultRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)

	okRes := Okay(int32(99))
	EncodeResult(w, okRes, func(w *Writer, v int32) { w.WriteInt32(v) })
	errRes := Error[int32]("boom")
	EncodeResult(w, errRes, func(w *Writer, v int32) { w.WriteInt32(v) })

	r := NewReader(bytes.NewReader(buf.Bytes()))
	got1, err := DecodeResult(r, func(r *Reader) (int32, error) { return r.ReadInt32() })
	if err != nil || !got1.Ok || got1.Value != 99 {
		t.Fatalf("expected ok(99), got %+v err %v", got1, err)
	}
	got2, err := DecodeResult(r, func(r *Reader) (int32, error) { return r.ReadInt32() })
	if err != nil || got2.Ok || got2.Err.Message != "boom" {
		t.Fatalf("expected error(boom), got %+v err %v", got2, err)
	}
}
