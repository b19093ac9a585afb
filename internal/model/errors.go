package model

import (
	"errors"
	"fmt"
)

// Op names the operation attempted when a lookup fails. It is phrased to
// slot into the error message.
type Op string

const (
	OpGet             Op = "get"
	OpUpdate          Op = "update"
	OpBuy             Op = "buy"
	OpDelete          Op = "delete"
	OpSetAvailability Op = "change availability of"
	OpSetPrice        Op = "change the price of"
	OpAvailability    Op = "check availability of"
)

// NotFoundError is returned whenever an operation names an id that is not in
// the table. Callers are expected to branch on it with IsNotFound.
type NotFoundError struct {
	Op Op
	ID uint64
}

func (e *NotFoundError) Error() string {
	if e.Op == "" || e.Op == OpGet {
		return fmt.Sprintf("a house with id=%d not found", e.ID)
	}
	return fmt.Sprintf("couldn't %s a house with id=%d. house not found", e.Op, e.ID)
}

// NewNotFound creates a NotFoundError for op on id.
func NewNotFound(op Op, id uint64) *NotFoundError {
	return &NotFoundError{Op: op, ID: id}
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InsufficientUnitsError is returned by a purchase when the payload offers
// no unit to buy. The house is left unchanged.
type InsufficientUnitsError struct {
	ID    uint64
	Units uint64
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("couldn't buy a house with id=%d. %d units available", e.ID, e.Units)
}

// IsInsufficientUnits returns true if err is or wraps an InsufficientUnitsError.
func IsInsufficientUnits(err error) bool {
	var iu *InsufficientUnitsError
	return errors.As(err, &iu)
}
