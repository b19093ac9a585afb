// Package schema validates incoming house payloads against the CUE
// definition in payload.cue before they are decoded.
//
// The definition is closed, so unknown fields are rejected, and every
// field is required. Numbers must be non-negative integers no larger than
// MaxAmount.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/houseledger/internal/model"
)

//go:embed payload.cue
var payloadCUE string

// FieldError is one problem found in a payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a payload.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid house payload: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// MaxAmount is the largest price or unit count. The SQLite and Postgres
// journals store amounts as signed 64-bit integers.
const MaxAmount uint64 = math.MaxInt64

// CheckAmount rejects v when it exceeds MaxAmount.
func CheckAmount(field string, v uint64) error {
	if fe, ok := amountError(field, v); ok {
		return &ValidationError{Errors: []FieldError{fe}}
	}
	return nil
}

// CheckBounds applies CheckAmount to every amount in p. Payloads decoded by
// a Validator already satisfy it.
func CheckBounds(p model.HousePayload) error {
	out := &ValidationError{}
	if fe, ok := amountError("price", p.Price); ok {
		out.Errors = append(out.Errors, fe)
	}
	if fe, ok := amountError("availabile_units", p.AvailableUnits); ok {
		out.Errors = append(out.Errors, fe)
	}
	if len(out.Errors) > 0 {
		return out
	}
	return nil
}

func amountError(field string, v uint64) (FieldError, bool) {
	if v <= MaxAmount {
		return FieldError{}, false
	}
	return FieldError{Field: field, Message: fmt.Sprintf("%d exceeds the maximum %d", v, MaxAmount)}, true
}

// Validator checks raw JSON against #HousePayload. Safe for concurrent use.
type Validator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(payloadCUE, cue.Filename("payload.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}
	def := root.LookupPath(cue.ParsePath("#HousePayload"))
	if !def.Exists() {
		return nil, errors.New("compile payload schema: #HousePayload not defined")
	}
	return &Validator{ctx: ctx, def: def}, nil
}

// MustValidator is NewValidator for package-level use. The schema is
// embedded, so a failure is a build defect.
func MustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Payload validates raw and decodes it.
func (v *Validator) Payload(raw []byte) (model.HousePayload, error) {
	if err := v.Check(raw); err != nil {
		return model.HousePayload{}, err
	}
	var p model.HousePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.HousePayload{}, &ValidationError{Errors: []FieldError{{Field: "payload", Message: err.Error()}}}
	}
	return p, nil
}

// Check validates raw without decoding it.
func (v *Validator) Check(raw []byte) error {
	if !json.Valid(raw) {
		return &ValidationError{Errors: []FieldError{{Field: "payload", Message: "not valid JSON"}}}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	data := v.ctx.CompileBytes(raw, cue.Filename("payload.json"))
	if err := data.Err(); err != nil {
		return toValidationError(err)
	}
	unified := v.def.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return toValidationError(err)
	}
	return nil
}

func toValidationError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Errors: []FieldError{{Field: "payload", Message: err.Error()}}}
	}

	out := &ValidationError{}
	for _, e := range errs {
		field := strings.Join(e.Path(), ".")
		field = strings.TrimPrefix(field, "#HousePayload.")
		if field == "" || field == "#HousePayload" {
			field = "payload"
		}
		format, args := e.Msg()
		out.Errors = append(out.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	return out
}
