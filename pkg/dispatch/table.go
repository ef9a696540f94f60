// Package dispatch implements the per-service command table: a static
// name -> handler mapping built once at construction, with no dynamic
// casting at routing time.
package dispatch

import (
	"fmt"
	"sync"

	"github.com/aortez/dirtsim/pkg/envelope"
)

// Handler decodes a command payload, invokes the registered callback exactly
// once, and encodes the resulting response payload.
type Handler func(corrID uint64, payload []byte, reply func(name string, payload []byte))

// Table is a service's statically built name -> handler map. It is safe for
// concurrent lookup once registration is complete; registration itself is
// expected to happen single-threaded at startup.
type Table struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewTable() *Table {
	return &Table{handlers: make(map[string]Handler)}
}

// Register adds name -> handler, panicking on a duplicate name since that
// indicates a construction-time bug, not a runtime condition.
func (t *Table) Register(name string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.handlers[name]; exists {
		panic(fmt.Sprintf("dispatch: command %q already registered", name))
	}
	t.handlers[name] = h
}

// Dispatch looks up name and invokes its handler. It reports ok=false when
// no handler is registered; the caller is expected to log and drop the
// connection per the protocol's unknown-name failure mode.
func (t *Table) Dispatch(env envelope.Envelope, reply func(name string, payload []byte)) bool {
	t.mu.RLock()
	h, ok := t.handlers[env.Name]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	h(env.CorrelationID, env.Payload, reply)
	return true
}

// Register2 is a type-safe registration helper: it decodes the payload into
// Cmd, invokes fn, and encodes Resp back through reply. Generics give the
// compile-time type safety the spec asks for without any runtime casting.
func Register2[Cmd any, Resp any](
	t *Table,
	name string,
	decode func([]byte) (Cmd, error),
	encode func(Resp) []byte,
	fn func(corrID uint64, cmd Cmd, reply func(Resp)),
) {
	t.Register(name, func(corrID uint64, payload []byte, reply func(string, []byte)) {
		cmd, err := decode(payload)
		if err != nil {
			reply(name, nil)
			return
		}
		fn(corrID, cmd, func(resp Resp) {
			reply(name, encode(resp))
		})
	})
}

// Names returns the registered command names, primarily for diagnostics and
// tests.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		names = append(names, name)
	}
	return names
}
