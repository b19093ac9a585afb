// Package model defines the house listing record, its caller-supplied
// payload, the change records kept in each house's ledger and the errors
// returned by lookups.
//
// Values in this package are plain data. A House has no reference fields,
// so assigning or returning one always hands out an independent copy.
package model
