package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aortez/dirtsim/pkg/envelope"
)

func TestDefaultAddress(t *testing.T) {
	cases := map[string]string{
		"server": "ws://localhost:8080",
		"ui":     "ws://localhost:7070",
		"audio":  "ws://localhost:6060",
	}
	for target, want := range cases {
		if got := defaultAddress(target); got != want {
			t.Errorf("defaultAddress(%q) = %q, want %q", target, got, want)
		}
	}
}

func TestBuildJSONRequestMergesBodyFields(t *testing.T) {
	raw, err := buildJSONRequest("NoteOn", `{"note_id":1,"frequency_hz":440}`)
	if err != nil {
		t.Fatalf("buildJSONRequest: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["command"] != "NoteOn" {
		t.Errorf("command = %v, want NoteOn", got["command"])
	}
	if got["note_id"].(float64) != 1 {
		t.Errorf("note_id = %v, want 1", got["note_id"])
	}
	if got["frequency_hz"].(float64) != 440 {
		t.Errorf("frequency_hz = %v, want 440", got["frequency_hz"])
	}
}

func TestBuildJSONRequestEmptyBody(t *testing.T) {
	raw, err := buildJSONRequest("StatusGet", "")
	if err != nil {
		t.Fatalf("buildJSONRequest: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got["command"] != "StatusGet" {
		t.Errorf("got %v, want only {command: StatusGet}", got)
	}
}

func TestBuildJSONRequestInvalidBody(t *testing.T) {
	if _, err := buildJSONRequest("StatusGet", "{not json"); err == nil {
		t.Fatal("expected an error for malformed json-body")
	}
}

func TestDecodeStatusGetReplyOkay(t *testing.T) {
	var buf bytes.Buffer
	w := envelope.NewWriter(&buf)
	w.WriteBool(true)
	w.WriteString("basic_dirt")
	w.WriteInt32(64)
	w.WriteInt32(32)
	w.WriteFloat64(0.016)

	got, err := decodeStatusGetReply(buf.Bytes())
	if err != nil {
		t.Fatalf("decodeStatusGetReply: %v", err)
	}
	if got.ScenarioID != "basic_dirt" || got.Width != 64 || got.Height != 32 || got.Timestep != 0.016 {
		t.Errorf("got %+v", got)
	}
}

func TestDecodeStatusGetReplyError(t *testing.T) {
	var buf bytes.Buffer
	w := envelope.NewWriter(&buf)
	w.WriteBool(false)
	envelope.ApiError{Message: "scenario not running"}.EncodeBinary(w)

	_, err := decodeStatusGetReply(buf.Bytes())
	if err == nil {
		t.Fatal("expected an error for a not-okay reply")
	}
}

func TestParsePID(t *testing.T) {
	// parsePID only ever sees /proc entry names already filtered to start
	// with a digit (runCleanup checks entry.Name()[0] first), so it only
	// needs to handle well-formed all-digit PIDs.
	cases := map[string]int{
		"123":  123,
		"0":    0,
		"9999": 9999,
	}
	for input, want := range cases {
		if got := parsePID(input); got != want {
			t.Errorf("parsePID(%q) = %d, want %d", input, got, want)
		}
	}
}
