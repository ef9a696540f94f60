// Package wsnet implements the WebSocketService façade from §4.9: the one
// transport shape every DirtSim process (server, UI, audio, os-manager,
// CLI) builds on, in either listen (server) or connect (client) mode.
//
// A Service owns a pkg/dispatch.Table for binary-protocol commands, an
// optional JSON bridge dispatcher for the JSON fallback (§4.1), and, once
// Connect has been called, the single outbound connection a client-mode
// Service uses for SendCommand/SendBinaryAndReceive.
package wsnet

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/gorilla/websocket"
)

// Protocol names an encoding, binary or JSON. A server always accepts both
// binary and JSON frames from its peers (§4.1's JSON bridge is
// unconditional). SetProtocol stores a Protocol on the Service, but no
// Send* call reads it: SendBinary-family calls always send binary frames
// and SendJSON always sends a text frame.
type Protocol int

const (
	ProtocolBinary Protocol = iota
	ProtocolJSON
)

// JSONDispatcher answers one JSON-bridge request: given the command name
// and its raw field bytes, it returns either a success value (JSON-
// marshalable) or an ApiError, mirroring the binary dispatch table's
// Result<T,ApiError> contract one-to-one (§4.1).
type JSONDispatcher func(name string, rawFields []byte) (value any, apiErr *envelope.ApiError)

// Logger is the narrow logging contract wsnet depends on; nil is a valid
// Service field and simply disables logging.
type Logger func(format string, args ...any)

// Service is the WebSocketService façade. The zero value is not usable;
// construct with New.
type Service struct {
	table    *dispatch.Table
	jsonDisp JSONDispatcher
	protocol Protocol
	logf     Logger

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[ConnID]*Conn

	onConnect    func(*Conn)
	onDisconnect func(ConnID)

	connHandlers map[string]ConnHandler

	// client-mode state; populated by Connect.
	client *clientConn
}

// ConnHandler is a command handler that needs to know which connection
// issued the command — the render subscription path (RenderFormatSet)
// is the one case where the dispatch table's connection-agnostic Handler
// isn't enough, since a subscription is keyed by connection id.
type ConnHandler func(conn *Conn, corrID uint64, payload []byte)

// RegisterConnHandler installs name as a connection-aware command, checked
// ahead of the generic dispatch table in routeBinary.
func (s *Service) RegisterConnHandler(name string, fn ConnHandler) {
	if s.connHandlers == nil {
		s.connHandlers = make(map[string]ConnHandler)
	}
	s.connHandlers[name] = fn
}

// New builds a Service around table, which must already have every command
// this service handles registered (§4.2's "populated at construction").
func New(table *dispatch.Table, logf Logger) *Service {
	return &Service{
		table: table,
		logf:  logf,
		conns: make(map[ConnID]*Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetProtocol records p on the Service; the Send* calls do not consult it.
func (s *Service) SetProtocol(p Protocol) { s.protocol = p }

// SetJSONCommandDispatcher installs the JSON bridge handler (§4.1).
func (s *Service) SetJSONCommandDispatcher(fn JSONDispatcher) { s.jsonDisp = fn }

// OnConnect registers a callback fired once a new connection completes
// accept, before any frames are routed — e.g. to wire a render subscriber.
func (s *Service) OnConnect(fn func(*Conn)) { s.onConnect = fn }

// OnDisconnect registers a callback fired when a connection's read loop
// exits for any reason.
func (s *Service) OnDisconnect(fn func(ConnID)) { s.onDisconnect = fn }

func (s *Service) logPrintf(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}

// RegisterHandler is the type-safe registration helper from §4.9: it
// decodes the binary command payload into Cmd, invokes fn, and encodes
// Resp back as the response payload.
func RegisterHandler[Cmd any, Resp any](
	s *Service,
	name string,
	decode func([]byte) (Cmd, error),
	encode func(Resp) []byte,
	fn func(corrID uint64, cmd Cmd, reply func(Resp)),
) {
	dispatch.Register2(s.table, name, decode, encode, fn)
}

// jsonEnvelope lets encoding/json marshal an ApiError under the "error"
// key without a bespoke wrapper type.
type jsonEnvelope struct {
	ID    uint64 `json:"id"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func encodeJSONResponse(id uint64, value any, apiErr *envelope.ApiError) ([]byte, error) {
	env := jsonEnvelope{ID: id}
	if apiErr != nil {
		env.Error = apiErr.Message
	} else {
		env.Value = value
	}
	return json.Marshal(env)
}

var errNotConnected = fmt.Errorf("wsnet: not connected")

const defaultWriteTimeout = 10 * time.Second
