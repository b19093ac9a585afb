// Package harness runs scenario files against a fresh house service.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	setup:
//	  - op: add_house
//	    payload: { owners_name: Alice, location: Lagos, ... }
//	flow:
//	  - op: set_price
//	    id: 1
//	    price: 1200
//	    expect:
//	      outcome: ok
//	      result: { price: 1200 }
//	assertions:
//	  - type: history
//	    id: 1
//	    changes: [creation, price-changed]
//	  - type: house
//	    id: 1
//	    absent: true
//
// Step fields besides op are the operation's arguments: id, price, text and
// payload. Payloads go through the same schema check as HTTP bodies.
//
// # Assertion Types
//
//   - history: the change types recorded for a house, exactly and in order
//   - count: the number of houses in the table
//   - house: a subset of a house's fields, or that it is absent
//   - trace_order: operations appear in the trace in the given order
//
// # Deterministic Testing
//
// Every scenario runs on an in-memory service whose timestamps come from
// testutil.DeterministicTime (step 1000) and whose change ids come from
// testutil.SequenceGenerator ("chg-0001", ...). The same scenario therefore
// produces the same trace on every run, which RunWithGolden compares with a
// golden file.
package harness
