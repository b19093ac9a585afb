// Package store provides the SQLite journal for the house store.
//
// The journal keeps three tables:
//   - houses: the current table, one row per live house
//   - change_records: every ledger entry ever appended, deletions included
//   - allocator: the id allocator position, so ids are never reused across restarts
//
// Each committed mutation is written in one transaction (Apply). On startup
// Load reads everything back into a housestore.Snapshot.
//
// # Deterministic Reads
//
//   - houses are read ORDER BY id ASC
//   - change_records are read ORDER BY house_id ASC, seq ASC (seq is insertion order)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Text columns have a folded twin (owners_name_key, ...) holding
// query.Fold of the value. SelectHouses runs compiled query IR against them.
package store
