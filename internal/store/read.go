package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/query"
	"github.com/roach88/houseledger/internal/querysql"
)

// Load reads the full journal back as a snapshot.
// Houses are ordered by id, change records by house id and then insertion order.
func (s *Store) Load(ctx context.Context) (housestore.Snapshot, error) {
	houses, err := s.SelectHouses(ctx, query.SelectAll())
	if err != nil {
		return housestore.Snapshot{}, fmt.Errorf("load: %w", err)
	}

	records, err := s.readChanges(ctx, `
		SELECT id, house_id, change_type, timestamp
		FROM change_records
		ORDER BY house_id ASC, seq ASC
	`)
	if err != nil {
		return housestore.Snapshot{}, fmt.Errorf("load: %w", err)
	}

	lastID, err := s.lastID(ctx)
	if err != nil {
		return housestore.Snapshot{}, fmt.Errorf("load: %w", err)
	}

	return housestore.Snapshot{
		Version: housestore.SnapshotVersion,
		LastID:  lastID,
		Houses:  houses,
		Ledger:  records,
	}, nil
}

// History returns the change records of one house in insertion order.
//
// Returns an empty slice (not nil) if the house has no records.
func (s *Store) History(ctx context.Context, houseID uint64) ([]model.ChangeRecord, error) {
	records, err := s.readChanges(ctx, `
		SELECT id, house_id, change_type, timestamp
		FROM change_records
		WHERE house_id = ?
		ORDER BY seq ASC
	`, int64(houseID))
	if err != nil {
		return nil, fmt.Errorf("history of house %d: %w", houseID, err)
	}
	return records, nil
}

// SelectHouses runs a query against the houses table.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) SelectHouses(ctx context.Context, q query.Query) ([]model.House, error) {
	sqlText, args, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("select houses: %w", err)
	}
	defer rows.Close()

	houses := make([]model.House, 0)
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, err
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate houses: %w", err)
	}
	return houses, nil
}

func (s *Store) readChanges(ctx context.Context, query string, args ...any) ([]model.ChangeRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query change records: %w", err)
	}
	defer rows.Close()

	records := make([]model.ChangeRecord, 0)
	for rows.Next() {
		var (
			rec        model.ChangeRecord
			houseID    int64
			changeType string
			ts         int64
		)
		if err := rows.Scan(&rec.ID, &houseID, &changeType, &ts); err != nil {
			return nil, fmt.Errorf("scan change record: %w", err)
		}
		rec.HouseID = uint64(houseID)
		rec.ChangeType = model.ChangeType(changeType)
		rec.Timestamp = model.Timestamp(ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change records: %w", err)
	}
	return records, nil
}

func (s *Store) lastID(ctx context.Context) (uint64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT last_id FROM allocator WHERE name = ?`, allocatorName).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read allocator: %w", err)
	}
	return uint64(v), nil
}

// scanHouse reads one row in querysql.HouseColumns order.
func scanHouse(rows *sql.Rows) (model.House, error) {
	var (
		h            model.House
		id           int64
		price        int64
		units        int64
		availability int64
		createdAt    int64
		updatedAt    sql.NullInt64
	)
	err := rows.Scan(
		&id,
		&h.OwnersName,
		&h.Location,
		&h.HouseType,
		&price,
		&units,
		&availability,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.House{}, fmt.Errorf("scan house (columns %s): %w", strings.Join(querysql.HouseColumns, ", "), err)
	}

	h.ID = uint64(id)
	h.Price = uint64(price)
	h.AvailableUnits = uint64(units)
	h.Availability = availability != 0
	h.CreatedAt = model.Timestamp(createdAt)
	if updatedAt.Valid {
		h.UpdatedAt = model.SomeTime(model.Timestamp(updatedAt.Int64))
	}
	return h, nil
}
