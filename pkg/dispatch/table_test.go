package dispatch

import (
	"testing"

	"github.com/aortez/dirtsim/pkg/envelope"
)

func TestDispatchRoutesToHandler(t *testing.T) {
	table := NewTable()
	called := false
	table.Register("Ping", func(corrID uint64, payload []byte, reply func(string, []byte)) {
		called = true
		reply("Ping", []byte("pong"))
	})

	var gotName string
	var gotPayload []byte
	ok := table.Dispatch(envelope.Envelope{Name: "Ping"}, func(name string, payload []byte) {
		gotName = name
		gotPayload = payload
	})

	if !ok || !called {
		t.Fatal("expected Ping to dispatch and handler to run")
	}
	if gotName != "Ping" || string(gotPayload) != "pong" {
		t.Fatalf("unexpected reply: name=%q payload=%q", gotName, gotPayload)
	}
}

func TestDispatchUnknownNameReturnsFalse(t *testing.T) {
	table := NewTable()
	ok := table.Dispatch(envelope.Envelope{Name: "Nonexistent"}, func(string, []byte) {})
	if ok {
		t.Fatal("expected dispatch of unregistered name to report false")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	table := NewTable()
	table.Register("Dup", func(uint64, []byte, func(string, []byte)) {})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	table.Register("Dup", func(uint64, []byte, func(string, []byte)) {})
}
