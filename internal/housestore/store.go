package housestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/houseledger/internal/clock"
	"github.com/roach88/houseledger/internal/ledger"
	"github.com/roach88/houseledger/internal/model"
)

// Store is the house table together with its ledger and id allocator.
type Store struct {
	mu      sync.Mutex
	houses  map[uint64]model.House
	ids     *clock.Clock
	time    clock.TimeSource
	changes *ledger.Ledger
	journal Journal
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	time    clock.TimeSource
	ids     ledger.IDGenerator
	journal Journal
	logger  *slog.Logger
}

// WithTimeSource sets the source of created_at/updated_at values.
func WithTimeSource(ts clock.TimeSource) Option {
	return func(c *storeConfig) { c.time = ts }
}

// WithChangeIDs sets the generator for change record ids.
func WithChangeIDs(ids ledger.IDGenerator) Option {
	return func(c *storeConfig) { c.ids = ids }
}

// WithJournal sets the journal that mirrors committed mutations.
func WithJournal(j Journal) Option {
	return func(c *storeConfig) { c.journal = j }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *storeConfig) { c.logger = l }
}

// New creates an empty store. Without options it uses the wall clock,
// UUIDv7 change ids and no journal.
func New(opts ...Option) *Store {
	cfg := storeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.time == nil {
		cfg.time = clock.NewWallTime()
	}
	if cfg.journal == nil {
		cfg.journal = NopJournal{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		houses:  make(map[uint64]model.House),
		ids:     clock.New(),
		time:    cfg.time,
		changes: ledger.New(cfg.ids),
		journal: cfg.journal,
		logger:  cfg.logger,
	}
}

// Add inserts a new house built from p and returns it.
func (s *Store) Add(ctx context.Context, p model.HousePayload) (model.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.Peek()
	ts := model.Timestamp(s.time.Now())
	h := model.NewHouse(id, p, ts)
	rec := s.changes.NewRecord(id, model.ChangeCreation, ts)

	if err := s.commit(ctx, Mutation{House: h, Change: rec, LastID: id}); err != nil {
		return model.House{}, err
	}
	return h, nil
}

// Get returns the house with the given id.
func (s *Store) Get(id uint64) (model.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.houses[id]
	if !ok {
		return model.House{}, model.NewNotFound(model.OpGet, id)
	}
	return h, nil
}

// Lookup returns the house with the given id and whether it exists.
func (s *Store) Lookup(id uint64) (model.House, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.houses[id]
	return h, ok
}

// Update overwrites every mutable field of the house from p.
func (s *Store) Update(ctx context.Context, id uint64, p model.HousePayload) (model.House, error) {
	return s.mutate(ctx, model.OpUpdate, id, model.ChangeUpdate, func(h *model.House) error {
		h.Apply(p)
		return nil
	})
}

// Buy applies p and then takes one unit off the payload's unit count.
// Availability is recomputed from the remaining units. A payload offering
// zero units is rejected with InsufficientUnitsError.
func (s *Store) Buy(ctx context.Context, id uint64, p model.HousePayload) (model.House, error) {
	return s.mutate(ctx, model.OpBuy, id, model.ChangePurchase, func(h *model.House) error {
		if p.AvailableUnits == 0 {
			return &model.InsufficientUnitsError{ID: id, Units: p.AvailableUnits}
		}
		h.Apply(p)
		h.AvailableUnits = p.AvailableUnits - 1
		h.Availability = h.AvailableUnits > 0
		return nil
	})
}

// SetAvailability sets the availability flag. Units are not touched.
func (s *Store) SetAvailability(ctx context.Context, id uint64, available bool) (model.House, error) {
	return s.mutate(ctx, model.OpSetAvailability, id, model.ChangeAvailability, func(h *model.House) error {
		h.Availability = available
		return nil
	})
}

// SetPrice sets the price.
func (s *Store) SetPrice(ctx context.Context, id uint64, price uint64) (model.House, error) {
	return s.mutate(ctx, model.OpSetPrice, id, model.ChangePrice, func(h *model.House) error {
		h.Price = price
		return nil
	})
}

// Delete removes the house and returns it as it was before removal. The
// house's ledger is kept and gains a terminal deletion entry.
func (s *Store) Delete(ctx context.Context, id uint64) (model.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.houses[id]
	if !ok {
		return model.House{}, model.NewNotFound(model.OpDelete, id)
	}
	ts := s.stamp(h)
	rec := s.changes.NewRecord(id, model.ChangeDeletion, ts)

	if err := s.commit(ctx, Mutation{House: h, Change: rec, Deleted: true, LastID: s.ids.Current()}); err != nil {
		return model.House{}, err
	}
	return h, nil
}

// History returns the ledger of id in insertion order. An id that was never
// created yields an empty slice.
func (s *Store) History(id uint64) []model.ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes.History(id)
}

// List returns every house ordered by id.
func (s *Store) List() []model.House {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedHouses(s.houses)
}

// Len returns the number of houses in the table.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.houses)
}

// Snapshot exports the complete store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Version: SnapshotVersion,
		LastID:  s.ids.Current(),
		Houses:  sortedHouses(s.houses),
		Ledger:  s.changes.Records(),
	}
}

// Restore replaces the store state with snap. The journal is not written;
// Restore is how a journal hydrates the store it backs. On error the store
// is left unchanged.
func (s *Store) Restore(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	houses, err := restoredHouses(snap)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return s.install(snap, houses)
}

// Import replaces the store state with snap and overwrites the journal
// with it, if the journal is a Replacer. Both happen under the store lock,
// so no mutation can land between them. On error neither changes.
func (s *Store) Import(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	houses, err := restoredHouses(snap)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if r, ok := s.journal.(Replacer); ok {
		if err := r.Replace(ctx, snap); err != nil {
			s.logger.Warn("journal rejected import", "houses", len(houses), "error", err)
			return fmt.Errorf("import: journal: %w", err)
		}
	}
	if err := s.install(snap, houses); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

// restoredHouses checks snap's table against its ledger and returns the
// table keyed by id.
func restoredHouses(snap Snapshot) (map[uint64]model.House, error) {
	changes := ledger.New(nil)
	if err := changes.Restore(snap.Ledger); err != nil {
		return nil, err
	}
	houses := make(map[uint64]model.House, len(snap.Houses))
	for _, h := range snap.Houses {
		history := changes.History(h.ID)
		if len(history) == 0 {
			return nil, fmt.Errorf("house %d has no ledger", h.ID)
		}
		if history[len(history)-1].ChangeType == model.ChangeDeletion {
			return nil, fmt.Errorf("house %d is present but its ledger is closed", h.ID)
		}
		houses[h.ID] = h
	}
	return houses, nil
}

// install swaps in a checked state. The caller holds s.mu.
func (s *Store) install(snap Snapshot, houses map[uint64]model.House) error {
	// Keep the configured id generator for records appended after restore.
	if err := s.changes.Restore(snap.Ledger); err != nil {
		return err
	}
	s.houses = houses
	s.ids = clock.NewAt(snap.LastID)
	s.logger.Debug("store restored", "houses", len(houses), "changes", len(snap.Ledger), "last_id", snap.LastID)
	return nil
}

// mutate applies change to an existing house, stamps it and commits.
func (s *Store) mutate(ctx context.Context, op model.Op, id uint64, ct model.ChangeType, change func(*model.House) error) (model.House, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.houses[id]
	if !ok {
		return model.House{}, model.NewNotFound(op, id)
	}

	next := current
	if err := change(&next); err != nil {
		return model.House{}, err
	}
	ts := s.stamp(current)
	next.Touch(ts)
	rec := s.changes.NewRecord(id, ct, ts)

	if err := s.commit(ctx, Mutation{House: next, Change: rec, LastID: s.ids.Current()}); err != nil {
		return model.House{}, err
	}
	return next, nil
}

// stamp returns the time for a mutation of h, never earlier than any
// timestamp h already carries.
func (s *Store) stamp(h model.House) model.Timestamp {
	ts := model.Timestamp(s.time.Now())
	if ts < h.CreatedAt {
		ts = h.CreatedAt
	}
	if last, ok := h.UpdatedAt.Get(); ok && ts < last {
		ts = last
	}
	return ts
}

// commit checks the ledger entry, writes the journal and only then makes the
// mutation visible. Must be called with s.mu held.
func (s *Store) commit(ctx context.Context, m Mutation) error {
	if err := s.changes.Check(m.Change); err != nil {
		return fmt.Errorf("%s house %d: %w", m.Change.ChangeType, m.House.ID, err)
	}
	if err := s.journal.Apply(ctx, m); err != nil {
		s.logger.Warn("journal rejected mutation",
			"house_id", m.House.ID, "change", m.Change.ChangeType, "error", err)
		return fmt.Errorf("%s house %d: journal: %w", m.Change.ChangeType, m.House.ID, err)
	}

	if m.Change.ChangeType == model.ChangeCreation {
		s.ids.Next()
	}
	if m.Deleted {
		delete(s.houses, m.House.ID)
	} else {
		s.houses[m.House.ID] = m.House
	}
	if err := s.changes.Append(m.Change); err != nil {
		// Check passed under the same lock, so this cannot happen.
		panic(fmt.Sprintf("ledger append after check: %v", err))
	}

	s.logger.Debug("mutation committed",
		"house_id", m.House.ID, "change", m.Change.ChangeType, "timestamp", int64(m.Change.Timestamp))
	return nil
}
