package query

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/houseledger/internal/model"
)

type sliceSource []model.House

func (s sliceSource) List() []model.House {
	out := make([]model.House, len(s))
	copy(out, s)
	return out
}

func (s sliceSource) Lookup(id uint64) (model.House, bool) {
	for _, h := range s {
		if h.ID == id {
			return h, true
		}
	}
	return model.House{}, false
}

func house(id uint64, owner, location, kind string, price uint64, available bool) model.House {
	return model.NewHouse(id, model.HousePayload{
		OwnersName:     owner,
		Location:       location,
		HouseType:      kind,
		Price:          price,
		AvailableUnits: 1,
		Availability:   available,
	}, model.Timestamp(id*10))
}

func fixture() sliceSource {
	return sliceSource{
		house(1, "Chidi", "Lagos", "flat", 1000, true),
		house(2, "alice", "Abuja", "duplex", 2500, false),
		house(3, "Bola", "Ibadan", "bungalow", 1000, true),
		house(4, "Alice", "Port Harcourt", "Flat", 900, false),
		house(5, "Chidi", "Lekki, LAGOS", "terrace", 4000, true),
	}
}

func ids(houses []model.House) []uint64 {
	out := make([]uint64, len(houses))
	for i, h := range houses {
		out[i] = h.ID
	}
	return out
}

func TestAll_OrderedByID(t *testing.T) {
	src := sliceSource{fixture()[4], fixture()[0], fixture()[2]}
	e := NewEngine(src)
	assert.Equal(t, []uint64{1, 3, 5}, ids(e.All()))
}

func TestAll_EmptyStoreIsEmptyNotNil(t *testing.T) {
	e := NewEngine(sliceSource{})
	got := e.All()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAvailable_ExactSubsetOfAll(t *testing.T) {
	e := NewEngine(fixture())

	var want []uint64
	for _, h := range e.All() {
		if h.Availability {
			want = append(want, h.ID)
		}
	}
	assert.Equal(t, want, ids(e.Available()))
	assert.Equal(t, []uint64{1, 3, 5}, ids(e.Available()))
}

func TestSearchText(t *testing.T) {
	e := NewEngine(fixture())

	tests := []struct {
		name string
		text string
		want []uint64
	}{
		{"location, different case", "lagos", []uint64{1, 5}},
		{"owner name", "ALICE", []uint64{2, 4}},
		{"house type", "flat", []uint64{1, 4}},
		{"substring", "bad", []uint64{3}},
		{"no match", "Kano", []uint64{}},
		{"empty matches all", "", []uint64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(e.SearchText(tt.text)))
		})
	}
}

func TestSearchText_UnicodeFolding(t *testing.T) {
	src := sliceSource{
		house(1, "Jürgen", "Straße 5", "flat", 1, true),
		house(2, "Renée", "Paris", "flat", 1, true),
	}
	e := NewEngine(src)

	assert.Equal(t, []uint64{1}, ids(e.SearchText("STRASSE")))
	assert.Equal(t, []uint64{1}, ids(e.SearchText("JÜRGEN")))
	// Decomposed e + combining acute matches the precomposed spelling.
	assert.Equal(t, []uint64{2}, ids(e.SearchText("rene\u0301e")))
}

func TestSearchPrice_Equality(t *testing.T) {
	e := NewEngine(fixture())
	assert.Equal(t, []uint64{1, 3}, ids(e.SearchPrice(1000)))
	assert.Empty(t, e.SearchPrice(999))
}

func TestSortByName(t *testing.T) {
	e := NewEngine(fixture())
	got := e.SortByName()

	// Byte-wise order puts upper case before lower case; ties by id.
	assert.Equal(t, []uint64{4, 3, 1, 5, 2}, ids(got))

	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].OwnersName < got[j].OwnersName
	}))

	all := ids(e.All())
	sorted := ids(got)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	assert.Equal(t, all, sorted, "sort must be a permutation of all")
}

func TestAvailabilityOf(t *testing.T) {
	e := NewEngine(fixture())

	ok, err := e.AvailabilityOf(1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.AvailabilityOf(2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.AvailabilityOf(42)
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
	assert.Equal(t, "couldn't check availability of a house with id=42. house not found", err.Error())
}

func TestRun_CombinedQuery(t *testing.T) {
	e := NewEngine(fixture())
	got, err := e.Run(Select{
		Filter: And{Predicates: []Predicate{
			Equals{Field: FieldAvailability, Value: true},
			ContainsFold{Fields: []Field{FieldLocation}, Needle: "lagos"},
		}},
		Order: []OrderKey{{Field: FieldPrice, Desc: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 1}, ids(got))
}

func TestEval_DoesNotModifyInput(t *testing.T) {
	in := []model.House{fixture()[4], fixture()[0]}
	_, err := Eval(SelectByName(), in)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 1}, ids(in))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"all", SelectAll(), false},
		{"pointer select", &Select{}, false},
		{"nil", nil, true},
		{"price needs uint64", Select{Filter: Equals{Field: FieldPrice, Value: 5}}, true},
		{"text needs string", Select{Filter: Equals{Field: FieldLocation, Value: true}}, true},
		{"unknown field", Select{Filter: Equals{Field: "colour", Value: "red"}}, true},
		{"contains on number", Select{Filter: ContainsFold{Fields: []Field{FieldPrice}, Needle: "1"}}, true},
		{"contains needs fields", Select{Filter: ContainsFold{Needle: "x"}}, true},
		{"nested and", Select{Filter: And{Predicates: []Predicate{Equals{Field: FieldID, Value: "1"}}}}, true},
		{"order unknown", Select{Order: []OrderKey{{Field: "colour"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.q)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, Fold("LAGOS"), Fold("lagos"))
	assert.Equal(t, Fold("Straße"), Fold("STRASSE"))
	assert.Equal(t, Fold("caf\u00e9"), Fold("cafe\u0301"))
}
