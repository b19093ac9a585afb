package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/houseledger/internal/model"
)

// ErrClosed is returned when appending to the history of a deleted house.
var ErrClosed = errors.New("ledger closed by deletion")

// ErrDuplicateID is returned when a record reuses the id of one already in
// the ledger.
var ErrDuplicateID = errors.New("duplicate change record id")

// Ledger maps house ids to their change history.
type Ledger struct {
	ids     IDGenerator
	entries map[uint64][]model.ChangeRecord
	seen    map[string]struct{}
	total   int
}

// New creates an empty ledger. A nil generator defaults to UUIDv7Generator.
func New(ids IDGenerator) *Ledger {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Ledger{
		ids:     ids,
		entries: make(map[uint64][]model.ChangeRecord),
		seen:    make(map[string]struct{}),
	}
}

// NewRecord builds a record for houseID without appending it. The house
// store stages the record, hands it to its journal, and appends only after
// the journal accepted it.
func (l *Ledger) NewRecord(houseID uint64, ct model.ChangeType, ts model.Timestamp) model.ChangeRecord {
	return model.ChangeRecord{
		ID:         l.ids.Generate(),
		HouseID:    houseID,
		ChangeType: ct,
		Timestamp:  ts,
	}
}

// Check reports whether rec could be appended, without appending it.
func (l *Ledger) Check(rec model.ChangeRecord) error {
	if !rec.ChangeType.Valid() {
		return fmt.Errorf("append change for house %d: unknown change type %q", rec.HouseID, rec.ChangeType)
	}
	if _, dup := l.seen[rec.ID]; dup {
		return fmt.Errorf("append change for house %d: %w: %s", rec.HouseID, ErrDuplicateID, rec.ID)
	}
	history := l.entries[rec.HouseID]
	if len(history) == 0 {
		if rec.ChangeType != model.ChangeCreation {
			return fmt.Errorf("append change for house %d: first entry must be %q, got %q",
				rec.HouseID, model.ChangeCreation, rec.ChangeType)
		}
		return nil
	}
	last := history[len(history)-1]
	if last.ChangeType == model.ChangeDeletion {
		return fmt.Errorf("append change for house %d: %w", rec.HouseID, ErrClosed)
	}
	if rec.ChangeType == model.ChangeCreation {
		return fmt.Errorf("append change for house %d: already created", rec.HouseID)
	}
	if rec.Timestamp < last.Timestamp {
		return fmt.Errorf("append change for house %d: timestamp %d precedes %d",
			rec.HouseID, rec.Timestamp, last.Timestamp)
	}
	return nil
}

// Append adds rec to the end of its house's history.
func (l *Ledger) Append(rec model.ChangeRecord) error {
	if err := l.Check(rec); err != nil {
		return err
	}
	l.entries[rec.HouseID] = append(l.entries[rec.HouseID], rec)
	l.seen[rec.ID] = struct{}{}
	l.total++
	return nil
}

// History returns a copy of the records for houseID in insertion order.
// Returns an empty slice (not nil) for an id that was never created.
func (l *Ledger) History(houseID uint64) []model.ChangeRecord {
	history := l.entries[houseID]
	out := make([]model.ChangeRecord, len(history))
	copy(out, history)
	return out
}

// Len returns the total number of records across all houses.
func (l *Ledger) Len() int {
	return l.total
}

// Records returns every record, grouped by house id ascending and in
// insertion order within a house.
func (l *Ledger) Records() []model.ChangeRecord {
	ids := make([]uint64, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.ChangeRecord, 0, l.total)
	for _, id := range ids {
		out = append(out, l.entries[id]...)
	}
	return out
}

// Restore replaces the ledger content with records, which must be grouped
// per house in insertion order (as produced by Records). On error the
// ledger is left unchanged.
func (l *Ledger) Restore(records []model.ChangeRecord) error {
	fresh := New(l.ids)
	for i, rec := range records {
		if err := fresh.Append(rec); err != nil {
			return fmt.Errorf("restore record %d: %w", i, err)
		}
	}
	l.entries = fresh.entries
	l.seen = fresh.seen
	l.total = fresh.total
	return nil
}
