package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/houseledger/internal/service"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s\n", event.Seq, event.Op, event.Args, event.Outcome)
		}
	}
	return buf.String()
}

// assertHistory checks the sequence of change types in a house's ledger.
func assertHistory(svc *service.Service, assertion Assertion) error {
	records := svc.GetHouseUpdateHistory(context.Background(), assertion.ID)
	actual := make([]string, len(records))
	for i, rec := range records {
		actual[i] = string(rec.ChangeType)
	}

	if strings.Join(actual, ",") != strings.Join(assertion.Changes, ",") {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("house %d history %v", assertion.ID, assertion.Changes),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertCount checks the number of houses in the table.
func assertCount(svc *service.Service, assertion Assertion) error {
	if n := svc.Len(); n != *assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d houses", *assertion.Count),
			Actual:   fmt.Sprintf("%d houses", n),
		}
	}
	return nil
}

// assertHouse checks a house's fields with subset semantics, or that the
// house is gone.
func assertHouse(svc *service.Service, assertion Assertion) error {
	h, err := svc.GetHouse(context.Background(), assertion.ID)
	if assertion.Absent {
		if err == nil {
			return &AssertionError{
				Type:     AssertHouse,
				Expected: fmt.Sprintf("house %d absent", assertion.ID),
				Actual:   "house present",
			}
		}
		return nil
	}
	if err != nil {
		return &AssertionError{
			Type:     AssertHouse,
			Expected: fmt.Sprintf("house %d present", assertion.ID),
			Actual:   err.Error(),
		}
	}

	actual, err := normalize(h)
	if err != nil {
		return err
	}
	expected, err := normalize(assertion.Expect)
	if err != nil {
		return fmt.Errorf("house assertion: %w", err)
	}
	if !matchValue(expected, actual) {
		return &AssertionError{
			Type:     AssertHouse,
			Expected: fmt.Sprintf("house %d with %v", assertion.ID, expected),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Ops) && event.Op == assertion.Ops[next] {
			next++
		}
	}
	if next < len(assertion.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
			Actual:   fmt.Sprintf("%s not found after %v", assertion.Ops[next], assertion.Ops[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// matchValue reports whether actual matches expected. Maps match as a
// subset: extra keys in actual are ignored. Slices must have equal length
// and match element-wise. Both sides must be normalized JSON values.
func matchValue(expected, actual any) bool {
	switch exp := expected.(type) {
	case nil:
		return actual == nil
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for key, ev := range exp {
			av, exists := act[key]
			if !exists || !matchValue(ev, av) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchValue(exp[i], act[i]) {
				return false
			}
		}
		return true
	case json.Number:
		act, ok := actual.(json.Number)
		return ok && act.String() == exp.String()
	default:
		return expected == actual
	}
}

// EvaluateAssertions evaluates all assertions against the result and the
// final state of svc. Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, svc *service.Service) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertHistory:
			err = assertHistory(svc, assertion)
		case AssertCount:
			err = assertCount(svc, assertion)
		case AssertHouse:
			err = assertHouse(svc, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
