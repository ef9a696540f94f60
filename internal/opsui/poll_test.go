package opsui

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/aortez/dirtsim/pkg/wsnet"
)

func TestSummarizeStatus(t *testing.T) {
	cases := []struct {
		label string
		value map[string]any
		want  string
	}{
		{"server", map[string]any{"scenario_id": "basic_dirt"}, "scenario basic_dirt"},
		{"server", map[string]any{"scenario_id": ""}, "idle"},
		{"audio", map[string]any{"active_notes": []any{1, 2, 3}}, "3 active notes"},
		{"ui", map[string]any{"state": "Connected"}, "Connected"},
		{"os-manager", map[string]any{}, "reachable"},
	}

	for _, c := range cases {
		got := summarizeStatus(c.label, c.value)
		if got != c.want {
			t.Errorf("summarizeStatus(%q, %v) = %q, want %q", c.label, c.value, got, c.want)
		}
	}
}

func TestPollOneUnreachable(t *testing.T) {
	status := pollOne(Target{Label: "server", Address: "ws://127.0.0.1:1"})
	if status.Connected {
		t.Fatal("expected Connected=false for an address nothing listens on")
	}
	if status.Err == "" {
		t.Fatal("expected a dial error message")
	}
}

func TestPollOneReachable(t *testing.T) {
	const testPort = 19876

	table := dispatch.NewTable()
	svc := wsnet.New(table, nil)
	svc.SetJSONCommandDispatcher(func(name string, raw []byte) (any, *envelope.ApiError) {
		if name != "StatusGet" {
			return nil, &envelope.ApiError{Message: "unknown command"}
		}
		return map[string]any{"scenario_id": "basic_dirt"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	listenErr := make(chan error, 1)
	go func() { listenErr <- svc.Listen(ctx, testPort) }()
	t.Cleanup(func() {
		cancel()
		svc.Close()
	})

	// Listen's http.Server takes a moment to start accepting; pollOne
	// itself tolerates an unready listener via dialTimeout, so a short
	// fixed wait here is enough rather than a retry loop.
	time.Sleep(50 * time.Millisecond)

	status := pollOne(Target{Label: "server", Address: fmt.Sprintf("ws://127.0.0.1:%d", testPort)})
	if !status.Connected {
		t.Fatalf("expected Connected=true, got err=%q", status.Err)
	}
	if status.State != "scenario basic_dirt" {
		t.Fatalf("got state %q, want %q", status.State, "scenario basic_dirt")
	}

	select {
	case err := <-listenErr:
		t.Fatalf("Listen exited early: %v", err)
	default:
	}
}
