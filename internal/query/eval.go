package query

import (
	"sort"
	"strings"

	"github.com/roach88/houseledger/internal/model"
)

// Eval runs q over houses and returns the matching rows in query order.
// The input slice is not modified. Returns an empty slice (not nil) when
// nothing matches.
func Eval(q Query, houses []model.House) ([]model.House, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}
	sel, _ := asSelect(q)
	return evalSelect(sel, houses), nil
}

func evalSelect(sel Select, houses []model.House) []model.House {
	out := make([]model.House, 0, len(houses))
	for _, h := range houses {
		if sel.Filter == nil || matches(sel.Filter, h) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(sel.Order, out[i], out[j])
	})
	return out
}

func matches(p Predicate, h model.House) bool {
	switch pred := p.(type) {
	case Equals:
		return fieldValue(h, pred.Field) == pred.Value
	case *Equals:
		return fieldValue(h, pred.Field) == pred.Value
	case ContainsFold:
		return matchesContains(pred, h)
	case *ContainsFold:
		return matchesContains(*pred, h)
	case And:
		return matchesAll(pred.Predicates, h)
	case *And:
		return matchesAll(pred.Predicates, h)
	default:
		return false
	}
}

func matchesContains(c ContainsFold, h model.House) bool {
	for _, f := range c.Fields {
		if s, ok := fieldValue(h, f).(string); ok && containsFold(s, c.Needle) {
			return true
		}
	}
	return false
}

func matchesAll(preds []Predicate, h model.House) bool {
	for _, p := range preds {
		if !matches(p, h) {
			return false
		}
	}
	return true
}

// fieldValue returns the value of f as string, uint64 or bool.
func fieldValue(h model.House, f Field) any {
	switch f {
	case FieldID:
		return h.ID
	case FieldOwnersName:
		return h.OwnersName
	case FieldLocation:
		return h.Location
	case FieldHouseType:
		return h.HouseType
	case FieldPrice:
		return h.Price
	case FieldAvailableUnits:
		return h.AvailableUnits
	case FieldAvailability:
		return h.Availability
	default:
		return nil
	}
}

// less orders a before b by keys, then by id.
func less(keys []OrderKey, a, b model.House) bool {
	for _, key := range keys {
		c := compare(fieldValue(a, key.Field), fieldValue(b, key.Field))
		if c == 0 {
			continue
		}
		if key.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID < b.ID
}

func compare(a, b any) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case uint64:
		bv := b.(uint64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	default:
		return 0
	}
}
