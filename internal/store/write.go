package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/query"
)

// allocatorName is the allocator row holding the house id position.
const allocatorName = "houses"

// Apply writes one committed mutation: the house row (upserted or deleted),
// the change record and the allocator position, in a single transaction.
//
// Apply implements housestore.Journal.
func (s *Store) Apply(ctx context.Context, m housestore.Mutation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if m.Deleted {
		if _, err = tx.ExecContext(ctx, `DELETE FROM houses WHERE id = ?`, int64(m.House.ID)); err != nil {
			return fmt.Errorf("apply: delete house %d: %w", m.House.ID, err)
		}
	} else if err = upsertHouse(ctx, tx, m.House); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	if err = insertChange(ctx, tx, m.Change); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	if err = setAllocator(ctx, tx, m.LastID); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("apply: commit: %w", err)
	}
	return nil
}

// Replace discards everything in the database and writes snap in its place.
// Used by import; snap must already be valid.
func (s *Store) Replace(ctx context.Context, snap housestore.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"houses", "change_records", "allocator"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("replace: clear %s: %w", table, err)
		}
	}
	for _, h := range snap.Houses {
		if err = upsertHouse(ctx, tx, h); err != nil {
			return fmt.Errorf("replace: %w", err)
		}
	}
	for _, rec := range snap.Ledger {
		if err = insertChange(ctx, tx, rec); err != nil {
			return fmt.Errorf("replace: %w", err)
		}
	}
	if err = setAllocator(ctx, tx, snap.LastID); err != nil {
		return fmt.Errorf("replace: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("replace: commit: %w", err)
	}
	return nil
}

func upsertHouse(ctx context.Context, tx *sql.Tx, h model.House) error {
	price, err := toInt64("price", h.Price)
	if err != nil {
		return err
	}
	units, err := toInt64("availabile_units", h.AvailableUnits)
	if err != nil {
		return err
	}

	var updatedAt sql.NullInt64
	if ts, ok := h.UpdatedAt.Get(); ok {
		updatedAt = sql.NullInt64{Int64: int64(ts), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO houses
		(id, owners_name, location, house_type, price, availabile_units, availability,
		 created_at, updated_at, owners_name_key, location_key, house_type_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owners_name = excluded.owners_name,
			location = excluded.location,
			house_type = excluded.house_type,
			price = excluded.price,
			availabile_units = excluded.availabile_units,
			availability = excluded.availability,
			updated_at = excluded.updated_at,
			owners_name_key = excluded.owners_name_key,
			location_key = excluded.location_key,
			house_type_key = excluded.house_type_key
	`,
		int64(h.ID),
		h.OwnersName,
		h.Location,
		h.HouseType,
		price,
		units,
		boolToInt(h.Availability),
		int64(h.CreatedAt),
		updatedAt,
		query.Fold(h.OwnersName),
		query.Fold(h.Location),
		query.Fold(h.HouseType),
	)
	if err != nil {
		return fmt.Errorf("upsert house %d: %w", h.ID, err)
	}
	return nil
}

func insertChange(ctx context.Context, tx *sql.Tx, rec model.ChangeRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO change_records (id, house_id, change_type, timestamp)
		VALUES (?, ?, ?, ?)
	`,
		rec.ID,
		int64(rec.HouseID),
		string(rec.ChangeType),
		int64(rec.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert change %s: %w", rec.ID, err)
	}
	return nil
}

// setAllocator records lastID, never moving the allocator backwards.
func setAllocator(ctx context.Context, tx *sql.Tx, lastID uint64) error {
	v, err := toInt64("last_id", lastID)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO allocator (name, last_id) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET last_id = MAX(last_id, excluded.last_id)
	`, allocatorName, v)
	if err != nil {
		return fmt.Errorf("set allocator: %w", err)
	}
	return nil
}

func toInt64(column string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%s %d exceeds the SQLite integer range", column, v)
	}
	return int64(v), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
