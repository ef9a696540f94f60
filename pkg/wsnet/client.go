package wsnet

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/gorilla/websocket"
)

// clientConn is the single outbound connection a client-mode Service uses.
// Unlike the server's per-connection Conn (one of many, tracked in
// s.conns), there is exactly one of these per Service.
type clientConn struct {
	conn *websocket.Conn

	nextCorrID atomic.Uint64

	waitersMu sync.Mutex
	waiters   map[uint64]chan envelope.Envelope

	// jsonCh carries text-frame replies to a pending SendJSON call. The CLI
	// is the only JSON-bridge client and issues one request per connection,
	// so a single-slot channel is enough; no correlation bookkeeping.
	jsonCh chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// Connect dials url and starts the background reader that fans inbound
// frames out to either a registered handler (push events and commands
// this end itself serves) or a pending SendBinaryAndReceive waiter keyed
// by correlation id (§4.9, §5's "client's sendBinaryAndReceive parks on a
// correlation-id-keyed slot with a timeout").
func (s *Service) Connect(url string, timeout time.Duration) error {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("wsnet: dial %s: %w", url, err)
	}

	s.client = &clientConn{
		conn:    conn,
		waiters: make(map[uint64]chan envelope.Envelope),
		jsonCh:  make(chan []byte, 1),
		done:    make(chan struct{}),
	}
	go s.clientReadLoop()
	return nil
}

func (s *Service) clientReadLoop() {
	c := s.client
	defer c.close()
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			env, err := envelope.Decode(data)
			if err != nil {
				s.logPrintf("wsnet: client dropping connection: %v", err)
				return
			}
			if env.CorrelationID != envelope.PushCorrelationID {
				if c.deliverToWaiter(env) {
					continue
				}
			}
			// Push event or unwaited response: route through the
			// dispatch table the same way a server-side inbound command
			// would be, so a client can also register push handlers
			// (e.g. the UI's RenderMessage subscription).
			s.table.Dispatch(env, func(string, []byte) {})
		case websocket.TextMessage:
			select {
			case c.jsonCh <- data:
			default:
			}
		}
	}
}

func (c *clientConn) deliverToWaiter(env envelope.Envelope) bool {
	c.waitersMu.Lock()
	ch, ok := c.waiters[env.CorrelationID]
	if ok {
		delete(c.waiters, env.CorrelationID)
	}
	c.waitersMu.Unlock()
	if !ok {
		return false
	}
	ch <- env
	return true
}

func (c *clientConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
		c.waitersMu.Lock()
		for id, ch := range c.waiters {
			close(ch)
			delete(c.waiters, id)
		}
		c.waitersMu.Unlock()
	})
}

// SendBinary writes a pre-built envelope, fire-and-forget.
func (s *Service) SendBinary(env envelope.Envelope) error {
	if s.client == nil {
		return errNotConnected
	}
	s.client.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	return s.client.conn.WriteMessage(websocket.BinaryMessage, env.Encode())
}

// SendBinaryAndReceive sends env and blocks until a response with the same
// correlation id arrives or timeout elapses, per §4.9/§5.
func (s *Service) SendBinaryAndReceive(env envelope.Envelope, timeout time.Duration) (envelope.Envelope, error) {
	if s.client == nil {
		return envelope.Envelope{}, errNotConnected
	}
	c := s.client

	ch := make(chan envelope.Envelope, 1)
	c.waitersMu.Lock()
	c.waiters[env.CorrelationID] = ch
	c.waitersMu.Unlock()

	if err := s.SendBinary(env); err != nil {
		c.waitersMu.Lock()
		delete(c.waiters, env.CorrelationID)
		c.waitersMu.Unlock()
		return envelope.Envelope{}, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return envelope.Envelope{}, fmt.Errorf("wsnet: connection closed awaiting response to %q", env.Name)
		}
		return resp, nil
	case <-time.After(timeout):
		c.waitersMu.Lock()
		delete(c.waiters, env.CorrelationID)
		c.waitersMu.Unlock()
		return envelope.Envelope{}, fmt.Errorf("wsnet: timed out after %s awaiting response to %q", timeout, env.Name)
	case <-c.done:
		return envelope.Envelope{}, fmt.Errorf("wsnet: connection closed awaiting response to %q", env.Name)
	}
}

// NextCorrelationID returns a fresh, never-zero correlation id for a new
// outbound command (0 is reserved for pushes per §4.1).
func (s *Service) NextCorrelationID() uint64 {
	return s.client.nextCorrID.Add(1)
}

// SendCommand builds, sends, and decodes a typed command round trip: encode
// cmd under name, wait for the matching-correlation-id response, then decode
// its payload as Resp. This is the generic wrapper every process-specific
// client (UI, audio, CLI) calls through rather than touching envelopes
// directly (§4.9's sendCommand<Command, OkayResponse>).
func SendCommand[Cmd any, Resp any](
	s *Service,
	name string,
	cmd Cmd,
	encode func(Cmd) []byte,
	decode func([]byte) (Resp, error),
	timeout time.Duration,
) (Resp, error) {
	var zero Resp
	env := envelope.Envelope{
		CorrelationID: s.NextCorrelationID(),
		Kind:          envelope.KindCommand,
		Name:          name,
		Payload:       encode(cmd),
	}
	resp, err := s.SendBinaryAndReceive(env, timeout)
	if err != nil {
		return zero, err
	}
	return decode(resp.Payload)
}

// SendJSON writes a JSON-bridge request (§4.1) as a text frame and blocks
// for the single text-frame reply or timeout, for callers that speak the
// JSON fallback directly rather than a typed binary command (the CLI's
// json-body form).
func (s *Service) SendJSON(body []byte, timeout time.Duration) ([]byte, error) {
	if s.client == nil {
		return nil, errNotConnected
	}
	c := s.client
	c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return nil, err
	}
	select {
	case data := <-c.jsonCh:
		return data, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("wsnet: timed out after %s awaiting JSON reply", timeout)
	case <-c.done:
		return nil, fmt.Errorf("wsnet: connection closed awaiting JSON reply")
	}
}

// CloseClient tears down the client connection, if any.
func (s *Service) CloseClient() {
	if s.client != nil {
		s.client.close()
	}
}
