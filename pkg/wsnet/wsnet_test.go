package wsnet

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aortez/dirtsim/pkg/dispatch"
	"github.com/aortez/dirtsim/pkg/envelope"
	"github.com/gorilla/websocket"
)

func httptestHandler(svc *Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		svc.acceptConn(w, r)
	})
	return mux
}

func encodePingCmd(n uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], n)
	return b[:]
}

func decodePingCmd(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("ping payload too short: %d bytes", len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

func newTestServer(t *testing.T) (*Service, string) {
	t.Helper()
	table := dispatch.NewTable()
	svc := New(table, nil)

	RegisterHandler(svc, "Ping", decodePingCmd, encodePingCmd, func(corrID uint64, n uint32, reply func(uint32)) {
		reply(n + 1)
	})

	httpSrv := httptest.NewServer(httptestHandler(svc))
	t.Cleanup(httpSrv.Close)
	t.Cleanup(svc.Close)

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	return svc, url
}

func TestServerClientPingPong(t *testing.T) {
	_, url := newTestServer(t)

	client := New(dispatch.NewTable(), nil)
	if err := client.Connect(url, 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.CloseClient()

	resp, err := SendCommand(client, "Ping", uint32(41), encodePingCmd, decodePingCmd, 2*time.Second)
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if resp != 42 {
		t.Fatalf("got %d, want 42", resp)
	}
}

func TestServerClientUnknownCommandDropsConnection(t *testing.T) {
	_, url := newTestServer(t)

	client := New(dispatch.NewTable(), nil)
	if err := client.Connect(url, 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.CloseClient()

	env := envelope.Envelope{
		CorrelationID: client.NextCorrelationID(),
		Kind:          envelope.KindCommand,
		Name:          "NoSuchCommand",
		Payload:       nil,
	}
	_, err := client.SendBinaryAndReceive(env, 2*time.Second)
	if err == nil {
		t.Fatal("expected an error once the server drops the connection on an unknown command")
	}
}

func TestSendBinaryAndReceiveTimesOut(t *testing.T) {
	table := dispatch.NewTable()
	table.Register("Silent", func(corrID uint64, payload []byte, reply func(string, []byte)) {
		// Never replies, forcing the caller to time out.
	})
	svc := New(table, nil)
	httpSrv := httptest.NewServer(httptestHandler(svc))
	t.Cleanup(httpSrv.Close)
	t.Cleanup(svc.Close)
	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")

	client := New(dispatch.NewTable(), nil)
	if err := client.Connect(url, 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.CloseClient()

	env := envelope.Envelope{
		CorrelationID: client.NextCorrelationID(),
		Kind:          envelope.KindCommand,
		Name:          "Silent",
	}
	_, err := client.SendBinaryAndReceive(env, 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestJSONBridgeRoundTrip(t *testing.T) {
	table := dispatch.NewTable()
	svc := New(table, nil)
	svc.SetJSONCommandDispatcher(func(name string, rawFields []byte) (any, *envelope.ApiError) {
		if name != "Ping" {
			return nil, &envelope.ApiError{Message: "unknown command"}
		}
		return map[string]any{"pong": true}, nil
	})
	httpSrv := httptest.NewServer(httptestHandler(svc))
	t.Cleanup(httpSrv.Close)
	t.Cleanup(svc.Close)
	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")

	// Dial directly rather than through Service.Connect: that path's
	// background reader parks binary replies on the correlation-id waiter
	// map and would otherwise race this test's own ReadMessage for the
	// JSON bridge's text frames.
	rawConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer rawConn.Close()

	if err := rawConn.WriteMessage(websocket.TextMessage, []byte(`{"command":"Ping"}`)); err != nil {
		t.Fatalf("write JSON request: %v", err)
	}

	kind, data, err := rawConn.ReadMessage()
	if err != nil {
		t.Fatalf("read JSON response: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("expected a text frame back, got kind %d", kind)
	}
	if !strings.Contains(string(data), `"pong":true`) {
		t.Fatalf("unexpected JSON response: %s", data)
	}
}

func TestSendJSONRoundTrip(t *testing.T) {
	table := dispatch.NewTable()
	svc := New(table, nil)
	svc.SetJSONCommandDispatcher(func(name string, rawFields []byte) (any, *envelope.ApiError) {
		if name != "StatusGet" {
			return nil, &envelope.ApiError{Message: "unknown command"}
		}
		return map[string]any{"state": "Idle"}, nil
	})
	httpSrv := httptest.NewServer(httptestHandler(svc))
	t.Cleanup(httpSrv.Close)
	t.Cleanup(svc.Close)
	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")

	client := New(dispatch.NewTable(), nil)
	if err := client.Connect(url, 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.CloseClient()

	resp, err := client.SendJSON([]byte(`{"command":"StatusGet"}`), 2*time.Second)
	if err != nil {
		t.Fatalf("SendJSON: %v", err)
	}
	if !strings.Contains(string(resp), `"state":"Idle"`) {
		t.Fatalf("unexpected JSON response: %s", resp)
	}
}

func TestSendJSONErrorsWhenServerDropsConnection(t *testing.T) {
	// No JSON dispatcher installed: routeJSON closes the connection rather
	// than answering (server.go's "no JSON dispatcher installed" path).
	// SendJSON must surface that as an error rather than block forever
	// waiting on jsonCh.
	table := dispatch.NewTable()
	svc := New(table, nil)
	httpSrv := httptest.NewServer(httptestHandler(svc))
	t.Cleanup(httpSrv.Close)
	t.Cleanup(svc.Close)
	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")

	client := New(dispatch.NewTable(), nil)
	if err := client.Connect(url, 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.CloseClient()

	done := make(chan struct{})
	go func() {
		_, err := client.SendJSON([]byte(`{"command":"Unused"}`), 2*time.Second)
		if err == nil {
			t.Error("expected an error once the server drops the connection")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("SendJSON did not return after the server dropped the connection")
	}
}
