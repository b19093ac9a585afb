// Package housestore owns the table of house records.
//
// The Store allocates ids, stamps created_at and updated_at, applies
// mutations and appends one ledger entry per successful mutation. Every
// mutation runs inside a single critical section:
//
//  1. look up the record (NotFound if absent)
//  2. compute the new record and stage its ledger entry
//  3. hand both to the Journal
//  4. commit to the table, the ledger and the id allocator
//
// A failure in steps 1-3 leaves no trace, so callers never observe a
// partially applied mutation.
//
// Reads copy records out of the table. Nothing the store returns aliases its
// internal state.
package housestore
