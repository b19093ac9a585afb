// Package ledger keeps the append-only change history of every house.
//
// Each house id owns an ordered sequence of model.ChangeRecord values.
// Insertion order is chronological order: Append rejects a record whose
// timestamp is earlier than the last one recorded for the same id. A
// deletion record is terminal; nothing may be appended after it.
//
// The ledger outlives the records it describes. When a house is deleted its
// history stays queryable.
//
// A Ledger is not safe for concurrent use. The house store owns it and
// serializes access.
package ledger
