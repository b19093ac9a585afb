package model

// ChangeType labels the kind of mutation a ChangeRecord describes.
type ChangeType string

const (
	ChangeCreation     ChangeType = "creation"
	ChangeUpdate       ChangeType = "update"
	ChangePurchase     ChangeType = "purchase"
	ChangeDeletion     ChangeType = "deletion"
	ChangeAvailability ChangeType = "availability-changed"
	ChangePrice        ChangeType = "price-changed"
)

// ChangeTypes lists every change type in lifecycle order.
var ChangeTypes = []ChangeType{
	ChangeCreation,
	ChangeUpdate,
	ChangePurchase,
	ChangeAvailability,
	ChangePrice,
	ChangeDeletion,
}

// Valid reports whether c is a known change type.
func (c ChangeType) Valid() bool {
	for _, known := range ChangeTypes {
		if c == known {
			return true
		}
	}
	return false
}

// ChangeRecord is one immutable ledger entry.
//
// ID and HouseID make a record self-describing once it leaves the in-memory
// ledger (journal rows, snapshots). Within a ledger, records are ordered by
// insertion, which is also chronological order.
type ChangeRecord struct {
	ID         string     `json:"id"`
	HouseID    uint64     `json:"house_id"`
	ChangeType ChangeType `json:"change_type"`
	Timestamp  Timestamp  `json:"timestamp"`
}
