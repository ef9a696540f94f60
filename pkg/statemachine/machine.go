// Package statemachine implements the cooperative, single-threaded
// state-machine runtime shared by every DirtSim service: a sum-type of
// states, each with OnEnter/OnExit and typed event handlers, driven by a
// single-consumer event queue drained on the owning goroutine.
package statemachine

import "sync"

// State is one arm of a service's state sum type.
type State[Ctx any, Event any] interface {
	// Name identifies the state for logging and diagnostics.
	Name() string
	// OnEnter runs once when the machine transitions into this state.
	OnEnter(ctx Ctx)
	// OnExit runs once when the machine transitions out of this state.
	OnExit(ctx Ctx)
	// Handle processes an event. If handled is false, the runtime logs and
	// drops the event, staying in the current state (the spec's default
	// for an unhandled event).
	Handle(ctx Ctx, event Event) (next State[Ctx, Event], handled bool)
}

// GlobalHandler processes an event uniformly regardless of state (Quit,
// GetFPS, GetStats in the spec). If consumed is true the per-state handler
// is skipped for this event.
type GlobalHandler[Ctx any, Event any] func(ctx Ctx, event Event) (next State[Ctx, Event], consumed bool)

// Machine drives one service's state machine. It is not safe for concurrent
// use from multiple goroutines — events must be pushed via Post and are
// drained serially by Run on a single goroutine, matching the spec's
// single-threaded-cooperative model.
type Machine[Ctx any, Event any] struct {
	ctx     Ctx
	current State[Ctx, Event]
	globals []GlobalHandler[Ctx, Event]

	events    chan Event
	onDropped func(state string, event Event)

	mu       sync.Mutex
	stopped  bool
	stopCh   chan struct{}
}

// New creates a machine in initial, calling initial.OnEnter(ctx) immediately.
func New[Ctx any, Event any](ctx Ctx, initial State[Ctx, Event], queueDepth int) *Machine[Ctx, Event] {
	m := &Machine[Ctx, Event]{
		ctx:     ctx,
		current: initial,
		events:  make(chan Event, queueDepth),
		stopCh:  make(chan struct{}),
	}
	initial.OnEnter(ctx)
	return m
}

// AddGlobalHandler registers a handler consulted before the current state's
// Handle, in registration order.
func (m *Machine[Ctx, Event]) AddGlobalHandler(h GlobalHandler[Ctx, Event]) {
	m.globals = append(m.globals, h)
}

// OnDroppedEvent sets the callback invoked when an event reaches the queue
// after the machine has stopped, or is otherwise unhandled.
func (m *Machine[Ctx, Event]) OnDroppedEvent(fn func(state string, event Event)) {
	m.onDropped = fn
}

// Post enqueues an event for processing. It never blocks the caller
// indefinitely longer than the queue's configured depth; a full queue
// blocks the producer, matching the teacher's bounded-channel pattern for
// backpressure rather than silently dropping commands (render pushes use a
// separate drop-oldest path, see internal/render).
func (m *Machine[Ctx, Event]) Post(event Event) {
	select {
	case m.events <- event:
	case <-m.stopCh:
		if m.onDropped != nil {
			m.onDropped(m.StateName(), event)
		}
	}
}

// StateName returns the name of the current state.
func (m *Machine[Ctx, Event]) StateName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Name()
}

// Run drains the event queue until Stop is called. It must run on a single
// goroutine for the lifetime of the machine.
func (m *Machine[Ctx, Event]) Run() {
	for {
		select {
		case event := <-m.events:
			m.dispatch(event)
		case <-m.stopCh:
			return
		}
	}
}

// Step processes exactly one pending event if any is queued, returning
// false if the queue was empty. Useful for tests that want deterministic,
// synchronous control over the loop instead of a background goroutine.
func (m *Machine[Ctx, Event]) Step() bool {
	select {
	case event := <-m.events:
		m.dispatch(event)
		return true
	default:
		return false
	}
}

func (m *Machine[Ctx, Event]) dispatch(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.globals {
		next, consumed := g(m.ctx, event)
		if consumed {
			m.transitionLocked(next)
			return
		}
	}

	next, handled := m.current.Handle(m.ctx, event)
	if !handled {
		if m.onDropped != nil {
			m.onDropped(m.current.Name(), event)
		}
		return
	}
	m.transitionLocked(next)
}

// transitionLocked applies a non-nil state change: OnExit of the outgoing
// state runs before OnEnter of the incoming one, and re-entrant transitions
// triggered from within OnEnter/OnExit are not permitted (OnEnter/OnExit
// here must not call Post synchronously into the same machine's dispatch).
func (m *Machine[Ctx, Event]) transitionLocked(next State[Ctx, Event]) {
	if next == nil || next == m.current {
		return
	}
	m.current.OnExit(m.ctx)
	m.current = next
	m.current.OnEnter(m.ctx)
}

// Stop halts Run and causes subsequent Post calls to report a dropped
// event instead of blocking forever.
func (m *Machine[Ctx, Event]) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stopCh)
}
