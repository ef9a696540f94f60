package statemachine

import "testing"

type event string

type ctx struct {
	log []string
}

type stateA struct{}

func (stateA) Name() string { return "A" }
func (stateA) OnEnter(c *ctx) { c.log = append(c.log, "enter:A") }
func (stateA) OnExit(c *ctx)  { c.log = append(c.log, "exit:A") }
func (stateA) Handle(c *ctx, e event) (State[*ctx, event], bool) {
	if e == "go-b" {
		return stateB{}, true
	}
	return nil, false
}

type stateB struct{}

func (stateB) Name() string { return "B" }
func (stateB) OnEnter(c *ctx) { c.log = append(c.log, "enter:B") }
func (stateB) OnExit(c *ctx)  { c.log = append(c.log, "exit:B") }
func (stateB) Handle(c *ctx, e event) (State[*ctx, event], bool) {
	return nil, false
}

func TestTransitionsRunOnExitThenOnEnter(t *testing.T) {
	c := &ctx{}
	m := New[*ctx, event](c, stateA{}, 8)
	m.Post("go-b")
	if !m.Step() {
		t.Fatal("expected one event to be pending")
	}

	want := []string{"enter:A", "exit:A", "enter:B"}
	if len(c.log) != len(want) {
		t.Fatalf("log = %v, want %v", c.log, want)
	}
	for i := range want {
		if c.log[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q", i, c.log[i], want[i])
		}
	}
	if m.StateName() != "B" {
		t.Fatalf("StateName() = %q, want B", m.StateName())
	}
}

func TestUnhandledEventStaysInState(t *testing.T) {
	c := &ctx{}
	m := New[*ctx, event](c, stateB{}, 8)
	var dropped string
	m.OnDroppedEvent(func(state string, e event) { dropped = state })

	m.Post("anything")
	m.Step()

	if m.StateName() != "B" {
		t.Fatalf("expected to stay in B, got %q", m.StateName())
	}
	if dropped != "B" {
		t.Fatalf("expected dropped-event callback for state B, got %q", dropped)
	}
}

func TestGlobalHandlerPreemptsPerStateHandler(t *testing.T) {
	c := &ctx{}
	m := New[*ctx, event](c, stateA{}, 8)
	m.AddGlobalHandler(func(c *ctx, e event) (State[*ctx, event], bool) {
		if e == "quit" {
			return stateB{}, true
		}
		return nil, false
	})

	m.Post("quit")
	m.Step()

	if m.StateName() != "B" {
		t.Fatalf("expected global handler to transition to B, got %q", m.StateName())
	}
}
