// Package postgres provides a PostgreSQL journal for the house store.
//
// It keeps the same three tables as the SQLite journal (houses,
// change_records, allocator) and is selected with the "postgres" driver.
// Queries are answered by the in-memory store it hydrates; the database is
// only written through Apply and read back through Load.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/model"
)

//go:embed schema.sql
var schemaSQL string

const allocatorName = "houses"

// Store is a pgxpool-backed housestore.Journal.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty dsn")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Apply writes one committed mutation in a single transaction.
func (s *Store) Apply(ctx context.Context, m housestore.Mutation) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer s.rollbackOrCommit(ctx, tx, &err)

	if m.Deleted {
		if _, err = tx.Exec(ctx, `DELETE FROM houses WHERE id = $1`, int64(m.House.ID)); err != nil {
			return fmt.Errorf("postgres: delete house %d: %w", m.House.ID, err)
		}
	} else if err = upsertHouse(ctx, tx, m.House); err != nil {
		return err
	}
	if err = insertChange(ctx, tx, m.Change); err != nil {
		return err
	}
	return setAllocator(ctx, tx, m.LastID)
}

// Replace discards all rows and writes snap in their place.
func (s *Store) Replace(ctx context.Context, snap housestore.Snapshot) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer s.rollbackOrCommit(ctx, tx, &err)

	if _, err = tx.Exec(ctx, `TRUNCATE houses, change_records, allocator`); err != nil {
		return fmt.Errorf("postgres: truncate: %w", err)
	}
	for _, h := range snap.Houses {
		if err = upsertHouse(ctx, tx, h); err != nil {
			return err
		}
	}
	for _, rec := range snap.Ledger {
		if err = insertChange(ctx, tx, rec); err != nil {
			return err
		}
	}
	return setAllocator(ctx, tx, snap.LastID)
}

// Load reads the journal back as a snapshot, ordered the same way as
// housestore.Store.Snapshot.
func (s *Store) Load(ctx context.Context) (housestore.Snapshot, error) {
	snap := housestore.Snapshot{
		Version: housestore.SnapshotVersion,
		Houses:  make([]model.House, 0),
		Ledger:  make([]model.ChangeRecord, 0),
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, owners_name, location, house_type, price, availabile_units,
		       availability, created_at, updated_at
		FROM houses
		ORDER BY id ASC
	`)
	if err != nil {
		return snap, fmt.Errorf("postgres: query houses: %w", err)
	}
	for rows.Next() {
		var (
			h                       model.House
			id, price, units, since int64
			updated                 *int64
		)
		if err := rows.Scan(&id, &h.OwnersName, &h.Location, &h.HouseType, &price, &units,
			&h.Availability, &since, &updated); err != nil {
			rows.Close()
			return snap, fmt.Errorf("postgres: scan house: %w", err)
		}
		h.ID = uint64(id)
		h.Price = uint64(price)
		h.AvailableUnits = uint64(units)
		h.CreatedAt = model.Timestamp(since)
		if updated != nil {
			h.UpdatedAt = model.SomeTime(model.Timestamp(*updated))
		}
		snap.Houses = append(snap.Houses, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("postgres: iterate houses: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, house_id, change_type, timestamp
		FROM change_records
		ORDER BY house_id ASC, seq ASC
	`)
	if err != nil {
		return snap, fmt.Errorf("postgres: query change records: %w", err)
	}
	for rows.Next() {
		var (
			rec         model.ChangeRecord
			houseID, ts int64
			changeType  string
		)
		if err := rows.Scan(&rec.ID, &houseID, &changeType, &ts); err != nil {
			rows.Close()
			return snap, fmt.Errorf("postgres: scan change record: %w", err)
		}
		rec.HouseID = uint64(houseID)
		rec.ChangeType = model.ChangeType(changeType)
		rec.Timestamp = model.Timestamp(ts)
		snap.Ledger = append(snap.Ledger, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("postgres: iterate change records: %w", err)
	}

	var last int64
	err = s.pool.QueryRow(ctx, `SELECT last_id FROM allocator WHERE name = $1`, allocatorName).Scan(&last)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return snap, fmt.Errorf("postgres: read allocator: %w", err)
	default:
		snap.LastID = uint64(last)
	}
	return snap, nil
}

func (s *Store) rollbackOrCommit(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error("transaction rollback failed", "error", rbErr, "cause", *err)
		}
		return
	}
	if cmErr := tx.Commit(ctx); cmErr != nil {
		*err = fmt.Errorf("postgres: commit: %w", cmErr)
	}
}

func upsertHouse(ctx context.Context, tx pgx.Tx, h model.House) error {
	args, err := houseArgs(h)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO houses
		(id, owners_name, location, house_type, price, availabile_units, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			owners_name = EXCLUDED.owners_name,
			location = EXCLUDED.location,
			house_type = EXCLUDED.house_type,
			price = EXCLUDED.price,
			availabile_units = EXCLUDED.availabile_units,
			availability = EXCLUDED.availability,
			updated_at = EXCLUDED.updated_at
	`, args...)
	if err != nil {
		return fmt.Errorf("postgres: upsert house %d: %w", h.ID, err)
	}
	return nil
}

func insertChange(ctx context.Context, tx pgx.Tx, rec model.ChangeRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO change_records (id, house_id, change_type, timestamp)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, int64(rec.HouseID), string(rec.ChangeType), int64(rec.Timestamp))
	if err != nil {
		return fmt.Errorf("postgres: insert change %s: %w", rec.ID, err)
	}
	return nil
}

func setAllocator(ctx context.Context, tx pgx.Tx, lastID uint64) error {
	if lastID > math.MaxInt64 {
		return fmt.Errorf("postgres: last_id %d out of range", lastID)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO allocator (name, last_id) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET last_id = GREATEST(allocator.last_id, EXCLUDED.last_id)
	`, allocatorName, int64(lastID))
	if err != nil {
		return fmt.Errorf("postgres: set allocator: %w", err)
	}
	return nil
}

// houseArgs returns the insert parameters for h in column order.
func houseArgs(h model.House) ([]any, error) {
	if h.Price > math.MaxInt64 {
		return nil, fmt.Errorf("postgres: price %d out of range", h.Price)
	}
	if h.AvailableUnits > math.MaxInt64 {
		return nil, fmt.Errorf("postgres: availabile_units %d out of range", h.AvailableUnits)
	}
	var updated *int64
	if ts, ok := h.UpdatedAt.Get(); ok {
		v := int64(ts)
		updated = &v
	}
	return []any{
		int64(h.ID),
		h.OwnersName,
		h.Location,
		h.HouseType,
		int64(h.Price),
		int64(h.AvailableUnits),
		h.Availability,
		int64(h.CreatedAt),
		updated,
	}, nil
}
