// Package query provides read-only views over the house table.
//
// Queries are expressed in a small IR: a Select with an optional filter
// Predicate and an ordering. The same IR is evaluated in memory by Eval and
// compiled to SQL by package querysql, so the SQLite read path and the
// in-memory engine answer identically.
//
// Every result is ordered deterministically. Order keys are applied first,
// then id ascending breaks any remaining tie.
//
// Text matching is case-insensitive: both sides are NFC-normalized and
// Unicode case-folded before a substring test (see Fold).
package query
