package ir

import "encoding/json"

// Status codes carried by every Response envelope.
const (
	StatusOK         = 200
	StatusBadRequest = 400
	StatusNotFound   = 404
	StatusConflict   = 409
	StatusInternal   = 500
)

// Call is one contract invocation: a contract, a function name on it and
// positional string arguments.
type Call struct {
	Contract string   `json:"contract"`
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

// Response is the envelope returned for every call, success or failure.
// Message is empty on success; Payload is empty on failure.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Payload []byte `json:"payload,omitempty"`
}

// Success builds a 200 response carrying payload.
func Success(payload []byte) Response {
	return Response{Status: StatusOK, Payload: payload}
}

// Failure builds an error response with no payload.
func Failure(status int, message string) Response {
	return Response{Status: status, Message: message}
}

// OK reports whether the response is a success.
func (r Response) OK() bool {
	return r.Status == StatusOK
}

// PayloadJSON returns the payload as raw JSON when it is valid JSON, or as a
// JSON string otherwise. Used by outer surfaces that render envelopes.
func (r Response) PayloadJSON() json.RawMessage {
	if len(r.Payload) == 0 {
		return nil
	}
	if json.Valid(r.Payload) {
		return json.RawMessage(r.Payload)
	}
	quoted, _ := json.Marshal(string(r.Payload))
	return quoted
}

// KV is one key/value pair yielded by a state iterator.
type KV struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     []byte `json:"value"`
}

// ContractSpec is a compiled contract manifest entry.
type ContractSpec struct {
	Name      string        `json:"name"`
	Purpose   string        `json:"purpose"`
	Functions []FunctionSig `json:"functions"`
}

// Function returns the named function signature.
func (c ContractSpec) Function(name string) (FunctionSig, bool) {
	for _, fn := range c.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return FunctionSig{}, false
}

// FunctionSig describes one callable function: its positional arguments and
// whether it only reads state.
type FunctionSig struct {
	Name     string   `json:"name"`
	ReadOnly bool     `json:"read_only"`
	Args     []ArgSig `json:"args"`
}

// ArgSig names one positional argument and the check applied to it.
type ArgSig struct {
	Name     string `json:"name"`
	Check    string `json:"check"`
	Optional bool   `json:"optional,omitempty"`
}

// HistoryEntry is one committed write to a key.
type HistoryEntry struct {
	TxID      string `json:"tx_id"`
	Timestamp string `json:"timestamp"`
	Value     []byte `json:"value,omitempty"`
	IsDelete  bool   `json:"is_delete"`
}
