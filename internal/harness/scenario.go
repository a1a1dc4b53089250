package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one executable contract scenario.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario covers.
	Description string `yaml:"description"`

	// Setup establishes initial state. Every setup call must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the body of the scenario.
	Flow []Step `yaml:"flow"`

	// Assertions are evaluated after the flow.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one call.
type Step struct {
	// Call is "contract.function".
	Call string `yaml:"call"`

	// Args are the positional arguments.
	Args []string `yaml:"args"`

	// Expect checks the envelope. Nil means no check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Split returns the contract and function of the call.
func (s Step) Split() (string, string, error) {
	return splitCall(s.Call)
}

// Expect describes an expected envelope.
type Expect struct {
	// Status is the expected status code. Zero means 200.
	Status int `yaml:"status,omitempty"`

	// Message, when set, must equal the envelope message exactly.
	Message string `yaml:"message,omitempty"`

	// Payload is a subset match against a JSON object payload.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Count, when set, is the expected length of a JSON array payload.
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates the trace or the final ledger state.
type Assertion struct {
	Type string `yaml:"type"`

	// Call is contract.function (trace_contains, trace_count).
	Call string `yaml:"call,omitempty"`

	// Args, when set, must equal the call's args (trace_contains).
	Args []string `yaml:"args,omitempty"`

	// Calls is the expected order (trace_order).
	Calls []string `yaml:"calls,omitempty"`

	// Count is the expected number of calls (trace_count) or history
	// entries (history).
	Count int `yaml:"count,omitempty"`

	// Contract and Key address a record (final_state, history). A
	// composite key is given as ObjectType plus Attrs instead of Key.
	Contract   string   `yaml:"contract,omitempty"`
	Key        string   `yaml:"key,omitempty"`
	ObjectType string   `yaml:"object_type,omitempty"`
	Attrs      []string `yaml:"attrs,omitempty"`

	// Expect is a subset match against the record (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Absent asserts the key holds no record (final_state).
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertHistory       = "history"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	if _, _, err := step.Split(); err != nil {
		return err
	}
	if step.Expect != nil && step.Expect.Count != nil && len(step.Expect.Payload) > 0 {
		return fmt.Errorf("expect: payload and count are exclusive")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if err := validateAddress(index, a); err != nil {
			return err
		}
		if a.Absent == (len(a.Expect) > 0) {
			return fmt.Errorf("assertions[%d]: final_state needs exactly one of expect or absent", index)
		}
	case AssertHistory:
		if err := validateAddress(index, a); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validateAddress(index int, a *Assertion) error {
	if a.Contract == "" {
		return fmt.Errorf("assertions[%d]: contract is required for %s", index, a.Type)
	}
	if (a.Key == "") == (a.ObjectType == "") {
		return fmt.Errorf("assertions[%d]: %s needs exactly one of key or object_type", index, a.Type)
	}
	return nil
}

func splitCall(call string) (string, string, error) {
	contract, function, ok := strings.Cut(call, ".")
	if !ok || contract == "" || function == "" {
		return "", "", fmt.Errorf("call %q must be contract.function", call)
	}
	return contract, function, nil
}
