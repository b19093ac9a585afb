package query

import "fmt"

// Validate checks that q only references known fields and that every
// literal has the type of the field it is compared with.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	sel, err := asSelect(q)
	if err != nil {
		return err
	}
	if sel.Filter != nil {
		if err := validatePredicate(sel.Filter); err != nil {
			return err
		}
	}
	for _, key := range sel.Order {
		if key.Field.kind() == kindUnknown {
			return fmt.Errorf("order by unknown field %q", key.Field)
		}
	}
	return nil
}

func asSelect(q Query) (Select, error) {
	switch sel := q.(type) {
	case Select:
		return sel, nil
	case *Select:
		if sel == nil {
			return Select{}, fmt.Errorf("nil query")
		}
		return *sel, nil
	case nil:
		return Select{}, fmt.Errorf("nil query")
	default:
		return Select{}, fmt.Errorf("unsupported query type: %T", q)
	}
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case Equals:
		return validateEquals(pred)
	case *Equals:
		return validateEquals(*pred)
	case ContainsFold:
		return validateContains(pred)
	case *ContainsFold:
		return validateContains(*pred)
	case And:
		return validateAnd(pred)
	case *And:
		return validateAnd(*pred)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateEquals(eq Equals) error {
	switch eq.Field.kind() {
	case kindText:
		if _, ok := eq.Value.(string); !ok {
			return fmt.Errorf("field %q compares with string, got %T", eq.Field, eq.Value)
		}
	case kindNumber:
		if _, ok := eq.Value.(uint64); !ok {
			return fmt.Errorf("field %q compares with uint64, got %T", eq.Field, eq.Value)
		}
	case kindBool:
		if _, ok := eq.Value.(bool); !ok {
			return fmt.Errorf("field %q compares with bool, got %T", eq.Field, eq.Value)
		}
	default:
		return fmt.Errorf("unknown field %q", eq.Field)
	}
	return nil
}

func validateContains(c ContainsFold) error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("contains predicate needs at least one field")
	}
	for _, f := range c.Fields {
		if f.kind() != kindText {
			return fmt.Errorf("contains predicate on non-text field %q", f)
		}
	}
	return nil
}

func validateAnd(and And) error {
	for i, p := range and.Predicates {
		if err := validatePredicate(p); err != nil {
			return fmt.Errorf("and[%d]: %w", i, err)
		}
	}
	return nil
}
