package query

import "github.com/roach88/houseledger/internal/model"

// Source is the read side of the house table. housestore.Store implements it.
type Source interface {
	List() []model.House
	Lookup(id uint64) (model.House, bool)
}

// Engine answers queries over a snapshot of a Source taken at call time.
// It holds no state of its own.
type Engine struct {
	src Source
}

// NewEngine creates an engine reading from src.
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Run evaluates an arbitrary query.
func (e *Engine) Run(q Query) ([]model.House, error) {
	return Eval(q, e.src.List())
}

// All returns every house ordered by id.
func (e *Engine) All() []model.House {
	return e.run(SelectAll())
}

// Available returns the houses whose availability flag is set.
func (e *Engine) Available() []model.House {
	return e.run(SelectAvailable())
}

// SearchText returns the houses whose owner name, house type or location
// contains text, ignoring case.
func (e *Engine) SearchText(text string) []model.House {
	return e.run(SelectText(text))
}

// SearchPrice returns the houses priced exactly amount.
func (e *Engine) SearchPrice(amount uint64) []model.House {
	return e.run(SelectPrice(amount))
}

// SortByName returns every house ordered by owner name, ties by id.
func (e *Engine) SortByName() []model.House {
	return e.run(SelectByName())
}

// AvailabilityOf returns the availability flag of an existing house.
func (e *Engine) AvailabilityOf(id uint64) (bool, error) {
	h, ok := e.src.Lookup(id)
	if !ok {
		return false, model.NewNotFound(model.OpAvailability, id)
	}
	return h.Availability, nil
}

// run evaluates one of the package's own constructors, which are valid by
// construction.
func (e *Engine) run(sel Select) []model.House {
	return evalSelect(sel, e.src.List())
}
