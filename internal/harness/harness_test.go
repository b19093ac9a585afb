package harness

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_AliceLagos(t *testing.T) {
	result, err := Run(loadTestScenario(t, "alice_lagos"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 6)
	for i, ev := range result.Trace {
		assert.Equal(t, i+1, ev.Seq)
	}
	assert.Equal(t, "not_found", result.Trace[4].Outcome)
	assert.Equal(t, "a house with id=1 not found", result.Trace[4].Error)
	assert.Nil(t, result.Trace[4].Result)
}

func TestRun_BuyOut(t *testing.T) {
	result, err := Run(loadTestScenario(t, "buy_out"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// Setup steps are not traced.
	require.Len(t, result.Trace, 6)
	assert.Equal(t, "buy_house", result.Trace[0].Op)
	assert.Equal(t, "insufficient_units", result.Trace[2].Outcome)
}

func TestRun_IsDeterministic(t *testing.T) {
	s := loadTestScenario(t, "alice_lagos")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := (&TraceSnapshot{ScenarioName: s.Name, Trace: first.Trace}).Marshal()
	require.NoError(t, err)
	b, err := (&TraceSnapshot{ScenarioName: s.Name, Trace: second.Trace}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: mismatch
description: a wrong expectation fails the run without aborting it
flow:
  - op: get_house
    id: 7
  - op: get_all_houses
    expect:
      outcome: ok
      result: [{id: 1}]
assertions:
  - type: count
    count: 0
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected outcome ok, got not_found")
	assert.Contains(t, result.Errors[1], "expected result")
	assert.Len(t, result.Trace, 2)
}

func TestRun_InvalidPayloadOutcome(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: invalid
description: a payload missing fields is rejected before the store
flow:
  - op: add_house
    payload:
      owners_name: Ada
    expect:
      outcome: invalid
assertions:
  - type: count
    count: 0
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Trace[0].Error, "invalid house payload")
}

func TestRun_PriceBeyondMaxIsInvalid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: price-overflow
description: prices that do not fit a signed 64-bit column are rejected
setup:
  - op: add_house
    payload: {owners_name: Ada, location: Lagos, house_type: flat, price: 10, availabile_units: 1, availability: true}
flow:
  - op: set_price
    id: 1
    price: 9223372036854775808
    expect:
      outcome: invalid
  - op: add_house
    payload: {owners_name: Ada, location: Lagos, house_type: flat, price: 18446744073709551615, availabile_units: 1, availability: true}
    expect:
      outcome: invalid
  - op: set_price
    id: 1
    price: 9223372036854775807
assertions:
  - type: count
    count: 1
  - type: house
    id: 1
    expect: {price: 9223372036854775807}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Trace[0].Error, "exceeds the maximum")
}

func TestRun_SetupFailureAborts(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_setup
description: setup steps must succeed
setup:
  - op: delete_house
    id: 1
flow:
  - op: get_all_houses
assertions:
  - type: count
    count: 0
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0] delete_house")
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: failing
description: every assertion type can fail
setup:
  - op: add_house
    payload: {owners_name: A, location: L, house_type: flat, price: 1, availabile_units: 1, availability: true}
flow:
  - op: get_all_houses
assertions:
  - type: history
    id: 1
    changes: [creation, update]
  - type: count
    count: 2
  - type: house
    id: 1
    expect: {price: 2}
  - type: house
    id: 1
    absent: true
  - type: trace_order
    ops: [get_all_houses, add_house]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "Assertion failed: history")
	assert.Contains(t, result.Errors[1], "Expected: 2 houses")
	assert.Contains(t, result.Errors[2], "Assertion failed: house")
	assert.Contains(t, result.Errors[3], "house 1 absent")
	assert.Contains(t, result.Errors[4], "add_house not found after [get_all_houses]")
}

func TestMatchValue(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"subset map", map[string]any{"a": json.Number("1")}, map[string]any{"a": json.Number("1"), "b": true}, true},
		{"missing key", map[string]any{"c": nil}, map[string]any{"a": json.Number("1")}, false},
		{"null value", map[string]any{"a": nil}, map[string]any{"a": nil}, true},
		{"number mismatch", json.Number("1"), json.Number("2"), false},
		{"slice length", []any{}, []any{"x"}, false},
		{"slice elements", []any{map[string]any{"id": json.Number("3")}}, []any{map[string]any{"id": json.Number("3"), "x": "y"}}, true},
		{"type mismatch", "1", json.Number("1"), false},
		{"bool", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchValue(tt.expected, tt.actual))
		})
	}
}
