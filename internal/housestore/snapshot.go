package housestore

import (
	"fmt"
	"sort"

	"github.com/roach88/houseledger/internal/model"
)

// SnapshotVersion is the current Snapshot layout.
const SnapshotVersion = 1

// Snapshot is the complete state of a store: the table, every ledger entry
// and the id allocator position.
type Snapshot struct {
	Version int                  `json:"version"`
	LastID  uint64               `json:"last_id"`
	Houses  []model.House        `json:"houses"`
	Ledger  []model.ChangeRecord `json:"ledger"`
}

// Validate checks the structural invariants a restored store relies on.
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	seen := make(map[uint64]bool, len(s.Houses))
	for _, h := range s.Houses {
		if h.ID == 0 || h.ID > s.LastID {
			return fmt.Errorf("house id %d outside allocated range 1..%d", h.ID, s.LastID)
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate house id %d", h.ID)
		}
		seen[h.ID] = true
		if ts, ok := h.UpdatedAt.Get(); ok && ts < h.CreatedAt {
			return fmt.Errorf("house %d updated_at %d precedes created_at %d", h.ID, ts, h.CreatedAt)
		}
	}
	for _, rec := range s.Ledger {
		if rec.HouseID == 0 || rec.HouseID > s.LastID {
			return fmt.Errorf("change %s references unallocated house id %d", rec.ID, rec.HouseID)
		}
	}
	return nil
}

// sortedHouses returns the houses of m ordered by id.
func sortedHouses(m map[uint64]model.House) []model.House {
	out := make([]model.House, 0, len(m))
	for _, h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
