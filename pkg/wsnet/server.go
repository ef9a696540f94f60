package wsnet

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ConnID identifies one accepted connection. The server's render.Sender
// adapter converts it to internal/render's ConnID, which keys that
// package's subscriber table.
type ConnID string

// outboundFrame pairs a websocket message kind with its payload so a
// single bounded channel carries both atomically (two parallel channels
// would let concurrent senders interleave mismatched pairs).
type outboundFrame struct {
	kind    int
	payload []byte
}

// Conn is one accepted WebSocket connection: a dedicated writer goroutine
// fed by a bounded, drop-oldest outbound queue (§5's "each socket has a
// dedicated writer thread fed by a bounded channel"), plus the JSON
// bridge's per-connection request counter.
type Conn struct {
	ID   ConnID
	conn *websocket.Conn

	outbound chan outboundFrame

	jsonSeq uint64

	closeOnce sync.Once
	done      chan struct{}
}

const outboundQueueDepth = 64

func newConn(id ConnID, ws *websocket.Conn) *Conn {
	return &Conn{
		ID:       id,
		conn:     ws,
		outbound: make(chan outboundFrame, outboundQueueDepth),
		done:     make(chan struct{}),
	}
}

// send enqueues a frame, dropping the oldest queued frame if the outbound
// queue is full rather than blocking the caller (§4.6's delivery rule,
// generalized to every push this façade makes, not just RenderMessage).
func (c *Conn) send(kind int, payload []byte) {
	frame := outboundFrame{kind: kind, payload: payload}
	select {
	case c.outbound <- frame:
		return
	default:
	}
	select {
	case <-c.outbound:
	default:
	}
	select {
	case c.outbound <- frame:
	default:
	}
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case frame := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := c.conn.WriteMessage(frame.kind, frame.payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(defaultWriteTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// SendEnvelope pushes a binary envelope to this connection, fire-and-forget.
func (c *Conn) SendEnvelope(env envelope.Envelope) {
	c.send(websocket.BinaryMessage, env.Encode())
}

// Listen binds port, accepts connections, and routes every inbound frame
// to the dispatch table (binary) or the JSON bridge dispatcher (text),
// per §4.9. It blocks until the HTTP server stops or ctx is cancelled.
func (s *Service) Listen(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.acceptConn(w, r)
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.logPrintf("wsnet: listening on :%d", port)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Service) acceptConn(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logPrintf("wsnet: upgrade failed: %v", err)
		return
	}

	id := ConnID(newConnID())
	conn := newConn(id, ws)

	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()

	go conn.writeLoop()

	if s.onConnect != nil {
		s.onConnect(conn)
	}

	s.readLoop(conn)
}

// readLoop drains inbound frames until the socket errors or closes, per
// the failure modes in §4.1: a malformed frame or unknown kind/name drops
// the connection with a logged warning rather than crashing the service.
func (s *Service) readLoop(conn *Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn.ID)
		s.mu.Unlock()
		conn.close()
		if s.onDisconnect != nil {
			s.onDisconnect(conn.ID)
		}
	}()

	for {
		kind, data, err := conn.conn.ReadMessage()
		if err != nil {
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			s.routeBinary(conn, data)
		case websocket.TextMessage:
			s.routeJSON(conn, data)
		default:
			// Control frames are handled by gorilla internally; anything
			// else is not a recognized message kind for this protocol.
		}
	}
}

func (s *Service) routeBinary(conn *Conn, frame []byte) {
	env, err := envelope.Decode(frame)
	if err != nil {
		s.logPrintf("wsnet: dropping connection %s: %v", conn.ID, err)
		conn.close()
		return
	}
	if env.Kind != envelope.KindCommand {
		s.logPrintf("wsnet: dropping connection %s: unexpected kind %s on inbound frame", conn.ID, env.Kind)
		conn.close()
		return
	}

	if fn, ok := s.connHandlers[env.Name]; ok {
		fn(conn, env.CorrelationID, env.Payload)
		return
	}

	ok := s.table.Dispatch(env, func(name string, payload []byte) {
		conn.SendEnvelope(envelope.Envelope{
			CorrelationID: env.CorrelationID,
			Kind:          envelope.KindResponse,
			Name:          name,
			Payload:       payload,
		})
	})
	if !ok {
		s.logPrintf("wsnet: dropping connection %s: unknown command %q", conn.ID, env.Name)
		conn.close()
	}
}

func (s *Service) routeJSON(conn *Conn, raw []byte) {
	name, err := envelope.DecodeJSONRequest(raw)
	if err != nil {
		s.logPrintf("wsnet: dropping connection %s: malformed JSON request: %v", conn.ID, err)
		conn.close()
		return
	}
	if s.jsonDisp == nil {
		s.logPrintf("wsnet: dropping connection %s: no JSON dispatcher installed", conn.ID)
		conn.close()
		return
	}

	conn.jsonSeq++
	id := conn.jsonSeq
	value, apiErr := s.jsonDisp(name, raw)
	resp, err := encodeJSONResponse(id, value, apiErr)
	if err != nil {
		s.logPrintf("wsnet: failed to encode JSON response for %q: %v", name, err)
		return
	}
	conn.send(websocket.TextMessage, resp)
}

// Broadcast sends the same binary envelope to every currently connected
// peer, fire-and-forget. Used for process-wide pushes outside the
// render-subscriber path (e.g. discovery or status events).
func (s *Service) Broadcast(env envelope.Envelope) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, conn := range s.conns {
		conn.SendEnvelope(env)
	}
}

// SendTo pushes an envelope to one connection by id, used by
// internal/render's Sender adapter for per-subscriber RenderMessage
// pushes. It reports false if the connection is no longer present.
func (s *Service) SendTo(id ConnID, env envelope.Envelope) bool {
	s.mu.RLock()
	conn, ok := s.conns[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	conn.SendEnvelope(env)
	return true
}

// Close shuts down every tracked connection.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.close()
	}
}

func newConnID() string {
	return uuid.New().String()
}
