package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/houseledger/internal/metrics"
	"github.com/roach88/houseledger/internal/service"
)

// Scenario is a sequence of house operations with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup steps run before the flow and must succeed. They are not traced.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the traced part of the scenario.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step invokes one operation.
type Step struct {
	// Op is the operation's wire name, e.g. "add_house".
	Op string `yaml:"op"`

	ID      *uint64        `yaml:"id,omitempty"`
	Price   *uint64        `yaml:"price,omitempty"`
	Text    *string        `yaml:"text,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`

	// Expect checks the step's outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Outcome is ok, not_found, insufficient_units or invalid.
	Outcome string `yaml:"outcome"`

	// Result is matched against the step's JSON result: objects as a
	// subset, everything else exactly.
	Result any `yaml:"result,omitempty"`

	// Error, if set, must equal the error message.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ID names the house (history, house).
	ID uint64 `yaml:"id,omitempty"`

	// Changes is the expected change type sequence (history).
	Changes []string `yaml:"changes,omitempty"`

	// Count is the expected number of houses (count).
	Count *int `yaml:"count,omitempty"`

	// Expect is a subset of the house's fields (house).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Absent requires that the house is not in the table (house).
	Absent bool `yaml:"absent,omitempty"`

	// Ops is the expected operation order (trace_order).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertHistory    = "history"
	AssertCount      = "count"
	AssertHouse      = "house"
	AssertTraceOrder = "trace_order"
)

var outcomes = map[string]bool{
	metrics.OutcomeOK:           true,
	metrics.OutcomeNotFound:     true,
	metrics.OutcomeInsufficient: true,
	metrics.OutcomeInvalid:      true,
}

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
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
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
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil && !outcomes[step.Expect.Outcome] {
			return fmt.Errorf("flow[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// stepArgs lists which arguments each operation requires.
var stepArgs = map[string]struct{ id, price, payload bool }{
	service.OpAddHouse:              {payload: true},
	service.OpGetHouse:              {id: true},
	service.OpGetAllHouses:          {},
	service.OpGetAvailableHouses:    {},
	service.OpSearchHouses:          {},
	service.OpSearchPrice:           {price: true},
	service.OpSortHouseByName:       {},
	service.OpHouseAvailability:     {id: true},
	service.OpGetHouseUpdateHistory: {id: true},
	service.OpUpdateHouse:           {id: true, payload: true},
	service.OpBuyHouse:              {id: true, payload: true},
	service.OpSetHouseAvailable:     {id: true},
	service.OpSetHouseNotAvailable:  {id: true},
	service.OpSetPrice:              {id: true, price: true},
	service.OpDeleteHouse:           {id: true},
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	need, ok := stepArgs[step.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if need.id && step.ID == nil {
		return fmt.Errorf("%s: id is required", step.Op)
	}
	if need.price && step.Price == nil {
		return fmt.Errorf("%s: price is required", step.Op)
	}
	if need.payload && step.Payload == nil {
		return fmt.Errorf("%s: payload is required", step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertHistory:
		if a.ID == 0 {
			return fmt.Errorf("assertions[%d]: id is required for history", index)
		}
	case AssertCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for count", index)
		}
	case AssertHouse:
		if a.ID == 0 {
			return fmt.Errorf("assertions[%d]: id is required for house", index)
		}
		if !a.Absent && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect or absent is required for house", index)
		}
		if a.Absent && len(a.Expect) > 0 {
			return fmt.Errorf("assertions[%d]: expect and absent are mutually exclusive", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
