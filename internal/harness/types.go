package harness

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TraceEvent is one executed call and its envelope.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Phase   string   `json:"phase"` // "setup" or "flow"
	Call    string   `json:"call"`  // contract.function
	Args    []string `json:"args"`
	Status  int      `json:"status"`
	Message string   `json:"message,omitempty"`
	Payload string   `json:"payload,omitempty"`
}

// Line renders the event as one trace line.
func (e TraceEvent) Line() string {
	args, _ := json.Marshal(e.Args)
	line := fmt.Sprintf("[%d] %s %s -> %d", e.Seq, e.Call, args, e.Status)
	switch {
	case e.Message != "":
		line += " " + e.Message
	case e.Payload != "":
		line += " " + e.Payload
	}
	return line
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// FormatTrace renders a scenario trace as text, one call per line.
func FormatTrace(name string, trace []TraceEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", name)
	for _, e := range trace {
		b.WriteString(e.Line())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
