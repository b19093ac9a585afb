package housestore

import (
	"context"

	"github.com/roach88/houseledger/internal/model"
)

// Journal mirrors committed mutations into durable storage.
//
// Apply is called with the store lock held, before the mutation becomes
// visible. Returning an error aborts the mutation.
type Journal interface {
	Apply(ctx context.Context, m Mutation) error
}

// Mutation describes one committed change.
type Mutation struct {
	// House is the record after the change. For a deletion it is the
	// record as it was immediately before removal.
	House model.House

	// Change is the ledger entry appended for this mutation.
	Change model.ChangeRecord

	// Deleted is true when the record leaves the table.
	Deleted bool

	// LastID is the id allocator position once the mutation commits.
	LastID uint64
}

// Replacer is a Journal that can overwrite its whole content with a
// snapshot. Store.Import calls it with the store lock held.
type Replacer interface {
	Replace(ctx context.Context, snap Snapshot) error
}

// NopJournal discards mutations. It backs the purely in-memory store.
type NopJournal struct{}

func (NopJournal) Apply(context.Context, Mutation) error { return nil }

// JournalFunc adapts a function to the Journal interface.
type JournalFunc func(ctx context.Context, m Mutation) error

func (f JournalFunc) Apply(ctx context.Context, m Mutation) error { return f(ctx, m) }
