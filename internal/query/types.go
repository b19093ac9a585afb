package query

// Query is a sealed interface; only Select implements it.
type Query interface {
	queryNode()
}

// Predicate filters rows. It is sealed to this package so evaluators and
// compilers can switch over it exhaustively.
//
// Predicate types:
//   - Equals: field = value
//   - ContainsFold: any of several text fields contains a needle, case-insensitively
//   - And: all predicates must be true
type Predicate interface {
	predicateNode()
}

// Field names a house column. Names match the JSON and SQL column names.
type Field string

const (
	FieldID             Field = "id"
	FieldOwnersName     Field = "owners_name"
	FieldLocation       Field = "location"
	FieldHouseType      Field = "house_type"
	FieldPrice          Field = "price"
	FieldAvailableUnits Field = "availabile_units"
	FieldAvailability   Field = "availability"
)

// SearchFields are the text fields matched by free-text search.
var SearchFields = []Field{FieldOwnersName, FieldHouseType, FieldLocation}

type fieldKind int

const (
	kindUnknown fieldKind = iota
	kindText
	kindNumber
	kindBool
)

func (f Field) kind() fieldKind {
	switch f {
	case FieldOwnersName, FieldLocation, FieldHouseType:
		return kindText
	case FieldID, FieldPrice, FieldAvailableUnits:
		return kindNumber
	case FieldAvailability:
		return kindBool
	default:
		return kindUnknown
	}
}

// Select reads houses matching Filter (nil = every house), ordered by Order
// and then by id ascending.
//
//	Select{
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: FieldAvailability, Value: true},
//	    ContainsFold{Fields: SearchFields, Needle: "lagos"},
//	  }},
//	  Order: []OrderKey{{Field: FieldOwnersName}},
//	}
type Select struct {
	Filter Predicate
	Order  []OrderKey
}

func (Select) queryNode() {}

// OrderKey sorts by one field. Text is compared byte-wise.
type OrderKey struct {
	Field Field
	Desc  bool
}

// Equals matches rows whose field equals Value. Value must be a string for
// text fields, a uint64 for numeric fields and a bool for availability.
type Equals struct {
	Field Field
	Value any
}

func (Equals) predicateNode() {}

// ContainsFold matches rows where at least one of Fields contains Needle
// after folding both. An empty needle matches every row.
type ContainsFold struct {
	Fields []Field
	Needle string
}

func (ContainsFold) predicateNode() {}

// And matches rows satisfying every predicate. Empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// SelectAll reads every house.
func SelectAll() Select {
	return Select{}
}

// SelectAvailable reads houses whose availability flag is set.
func SelectAvailable() Select {
	return Select{Filter: Equals{Field: FieldAvailability, Value: true}}
}

// SelectText reads houses whose owner, type or location contains text.
func SelectText(text string) Select {
	return Select{Filter: ContainsFold{Fields: SearchFields, Needle: text}}
}

// SelectPrice reads houses priced exactly amount.
func SelectPrice(amount uint64) Select {
	return Select{Filter: Equals{Field: FieldPrice, Value: amount}}
}

// SelectByName reads every house ordered by owner name.
func SelectByName() Select {
	return Select{Order: []OrderKey{{Field: FieldOwnersName}}}
}
