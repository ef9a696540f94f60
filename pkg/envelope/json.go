package envelope

import "encoding/json"

// JSONRequest is the JSON-fallback shape of a command: {"command": Name,
// <fields...>}. Fields are carried as a raw message so the dispatcher can
// unmarshal them into the declared command struct for Name.
type JSONRequest struct {
	Command string          `json:"command"`
	Fields  json.RawMessage `json:"-"`
}

// jsonRequestEnvelope lets us decode "command" while keeping the remaining
// fields available for a second unmarshal pass into the typed command.
type jsonRequestEnvelope struct {
	Command string `json:"command"`
}

// DecodeJSONRequest extracts the command name from a JSON request; callers
// then unmarshal raw into the concrete command struct registered for that
// name.
func DecodeJSONRequest(raw []byte) (name string, err error) {
	var env jsonRequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", err
	}
	return env.Command, nil
}

// JSONResponse is the JSON-fallback shape of a response:
// {"id": correlation_id, "value": ...} or {"id": correlation_id, "error": "..."}.
type JSONResponse struct {
	ID    uint64      `json:"id"`
	Value interface{} `json:"value,omitempty"`
	Error string      `json:"error,omitempty"`
}

// EncodeJSONResponse builds the JSON response for a Result, mirroring the
// binary Result encoding one-to-one (never lossy, per the protocol's JSON
// bridge contract).
func EncodeJSONResponse[T any](id uint64, res Result[T]) JSONResponse {
	if res.Ok {
		return JSONResponse{ID: id, Value: res.Value}
	}
	return JSONResponse{ID: id, Error: res.Err.Message}
}
