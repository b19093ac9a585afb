package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createJournaledHouses creates a deterministic in-memory house store that
// writes through to s. Extra options override the defaults.
func createJournaledHouses(t *testing.T, s *Store, opts ...housestore.Option) *housestore.Store {
	t.Helper()
	base := []housestore.Option{
		housestore.WithTimeSource(testutil.NewDeterministicTime(1000)),
		housestore.WithChangeIDs(testutil.NewSequenceGenerator("chg")),
		housestore.WithJournal(s),
	}
	return housestore.New(append(base, opts...)...)
}

// createTestPayload creates a payload with every field set.
func createTestPayload(owner, location, kind string, price uint64) model.HousePayload {
	return model.HousePayload{
		OwnersName:     owner,
		Location:       location,
		HouseType:      kind,
		Price:          price,
		AvailableUnits: 2,
		Availability:   true,
	}
}

func mustAdd(t *testing.T, hs *housestore.Store, p model.HousePayload) model.House {
	t.Helper()
	h, err := hs.Add(context.Background(), p)
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	return h
}
