package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/service"
	"github.com/roach88/houseledger/internal/testutil"
)

// TimeStep is the deterministic clock step used by every scenario.
const TimeStep = 1000

// Harness executes scenario steps against one service.
type Harness struct {
	svc *service.Service
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs on a fresh in-memory service for isolation.
//
// Execution flow:
// 1. Create a deterministic in-memory service
// 2. Execute setup steps (each must succeed)
// 3. Execute flow steps with expect validation, recording the trace
// 4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := service.OpenWithBackend(ctx, nil, service.OpenOptions{
		Logger: logger,
		StoreOptions: []housestore.Option{
			housestore.WithTimeSource(testutil.NewDeterministicTime(TimeStep)),
			housestore.WithChangeIDs(testutil.NewSequenceGenerator("chg")),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	h := &Harness{svc: svc}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	h.executeFlow(ctx, scenario.Flow, result)

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, svc) {
		result.AddError(errMsg)
	}
	return result, nil
}

func (h *Harness) executeSetup(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if _, err := h.execute(ctx, step); err != nil {
			return fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
	}
	return nil
}

func (h *Harness) executeFlow(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		out, err := h.execute(ctx, step)

		ev := TraceEvent{
			Op:      step.Op,
			Args:    stepArgsOf(step),
			Outcome: service.Outcome(err),
		}
		if err != nil {
			ev.Error = err.Error()
		} else {
			normalized, nerr := normalize(out)
			if nerr != nil {
				result.AddError(fmt.Sprintf("flow[%d] %s: %v", i, step.Op, nerr))
			}
			ev.Result = normalized
		}
		result.AddTrace(ev)

		if msg := checkExpect(step, ev); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}
}

// execute dispatches one step to the service.
func (h *Harness) execute(ctx context.Context, step Step) (any, error) {
	var id, price uint64
	if step.ID != nil {
		id = *step.ID
	}
	if step.Price != nil {
		price = *step.Price
	}
	var text string
	if step.Text != nil {
		text = *step.Text
	}

	switch step.Op {
	case service.OpAddHouse:
		p, err := h.payload(step)
		if err != nil {
			return nil, err
		}
		return h.svc.AddHouse(ctx, p)
	case service.OpGetHouse:
		return h.svc.GetHouse(ctx, id)
	case service.OpGetAllHouses:
		return h.svc.GetAllHouses(ctx), nil
	case service.OpGetAvailableHouses:
		return h.svc.GetAvailableHouses(ctx), nil
	case service.OpSearchHouses:
		return h.svc.SearchHouses(ctx, text), nil
	case service.OpSearchPrice:
		return h.svc.SearchPrice(ctx, price), nil
	case service.OpSortHouseByName:
		return h.svc.SortHouseByName(ctx), nil
	case service.OpHouseAvailability:
		return h.svc.HouseAvailability(ctx, id)
	case service.OpGetHouseUpdateHistory:
		return h.svc.GetHouseUpdateHistory(ctx, id), nil
	case service.OpUpdateHouse:
		p, err := h.payload(step)
		if err != nil {
			return nil, err
		}
		return h.svc.UpdateHouse(ctx, id, p)
	case service.OpBuyHouse:
		p, err := h.payload(step)
		if err != nil {
			return nil, err
		}
		return h.svc.BuyHouse(ctx, id, p)
	case service.OpSetHouseAvailable:
		return h.svc.SetHouseAvailable(ctx, id)
	case service.OpSetHouseNotAvailable:
		return h.svc.SetHouseNotAvailable(ctx, id)
	case service.OpSetPrice:
		return h.svc.SetPrice(ctx, id, price)
	case service.OpDeleteHouse:
		return h.svc.DeleteHouse(ctx, id)
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) payload(step Step) (model.HousePayload, error) {
	raw, err := json.Marshal(step.Payload)
	if err != nil {
		return model.HousePayload{}, fmt.Errorf("encode payload: %w", err)
	}
	return h.svc.DecodePayload(raw)
}

// stepArgsOf returns the arguments a step passed, for the trace.
func stepArgsOf(step Step) map[string]any {
	args := make(map[string]any)
	if step.ID != nil {
		args["id"] = *step.ID
	}
	if step.Price != nil {
		args["price"] = *step.Price
	}
	if step.Text != nil {
		args["text"] = *step.Text
	}
	if step.Payload != nil {
		args["payload"] = step.Payload
	}
	if len(args) == 0 {
		return nil
	}
	normalized, err := normalize(args)
	if err != nil {
		return args
	}
	return normalized.(map[string]any)
}

// normalize converts v to its JSON value form: maps, slices, strings,
// bools, nil and json.Number.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkExpect returns a failure message, or "" if ev satisfies the step.
func checkExpect(step Step, ev TraceEvent) string {
	want := step.Expect
	if want == nil {
		if ev.Outcome != "ok" {
			return fmt.Sprintf("expected outcome ok, got %s (%s)", ev.Outcome, ev.Error)
		}
		return ""
	}
	if ev.Outcome != want.Outcome {
		return fmt.Sprintf("expected outcome %s, got %s (%s)", want.Outcome, ev.Outcome, ev.Error)
	}
	if want.Error != "" && want.Error != ev.Error {
		return fmt.Sprintf("expected error %q, got %q", want.Error, ev.Error)
	}
	if want.Result != nil {
		expected, err := normalize(want.Result)
		if err != nil {
			return fmt.Sprintf("expect.result: %v", err)
		}
		if !matchValue(expected, ev.Result) {
			return fmt.Sprintf("expected result %v, got %v", expected, ev.Result)
		}
	}
	return ""
}
