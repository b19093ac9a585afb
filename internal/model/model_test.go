package model

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() HousePayload {
	return HousePayload{
		OwnersName:     "Alice",
		Location:       "Lagos",
		HouseType:      "flat",
		Price:          1000,
		AvailableUnits: 2,
		Availability:   true,
	}
}

func TestNewHouse_CopiesPayload(t *testing.T) {
	h := NewHouse(1, samplePayload(), 42)

	assert.Equal(t, uint64(1), h.ID)
	assert.Equal(t, Timestamp(42), h.CreatedAt)
	assert.False(t, h.UpdatedAt.IsSet())
	assert.Equal(t, samplePayload(), h.Payload())
}

func TestHouse_ApplyKeepsTimestamps(t *testing.T) {
	h := NewHouse(3, samplePayload(), 10)
	h.Touch(20)

	p := samplePayload()
	p.OwnersName = "Bola"
	p.Price = 5
	h.Apply(p)

	assert.Equal(t, "Bola", h.OwnersName)
	assert.Equal(t, uint64(5), h.Price)
	assert.Equal(t, Timestamp(10), h.CreatedAt)
	ts, ok := h.UpdatedAt.Get()
	require.True(t, ok)
	assert.Equal(t, Timestamp(20), ts)
}

func TestOptionalTime_JSON(t *testing.T) {
	t.Run("absent encodes as null", func(t *testing.T) {
		data, err := json.Marshal(NoTime())
		require.NoError(t, err)
		assert.Equal(t, "null", string(data))
	})

	t.Run("present encodes as nanoseconds", func(t *testing.T) {
		data, err := json.Marshal(SomeTime(1700000000000000000))
		require.NoError(t, err)
		assert.Equal(t, "1700000000000000000", string(data))
	})

	t.Run("zero is present, not absent", func(t *testing.T) {
		var o OptionalTime
		require.NoError(t, json.Unmarshal([]byte("0"), &o))
		ts, ok := o.Get()
		assert.True(t, ok)
		assert.Equal(t, Timestamp(0), ts)
	})

	t.Run("null decodes as absent", func(t *testing.T) {
		o := SomeTime(5)
		require.NoError(t, json.Unmarshal([]byte("null"), &o))
		assert.False(t, o.IsSet())
	})

	t.Run("rejects strings", func(t *testing.T) {
		var o OptionalTime
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &o))
	})
}

func TestHouse_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(NewHouse(1, samplePayload(), 7))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{"id", "owners_name", "location", "house_type", "price", "availabile_units", "availability", "created_at", "updated_at"} {
		assert.Contains(t, fields, name)
	}
	assert.Nil(t, fields["updated_at"])

	var back House
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, NewHouse(1, samplePayload(), 7), back)
}

func TestChangeType_Valid(t *testing.T) {
	for _, ct := range ChangeTypes {
		assert.True(t, ct.Valid(), ct)
	}
	assert.False(t, ChangeType("renamed").Valid())
}

func TestNotFoundError_Messages(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpGet, "a house with id=7 not found"},
		{OpUpdate, "couldn't update a house with id=7. house not found"},
		{OpBuy, "couldn't buy a house with id=7. house not found"},
		{OpDelete, "couldn't delete a house with id=7. house not found"},
		{OpSetPrice, "couldn't change the price of a house with id=7. house not found"},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, NewNotFound(tt.op, 7).Error())
		})
	}
}

func TestErrorPredicates_Unwrap(t *testing.T) {
	nf := fmt.Errorf("service: %w", NewNotFound(OpGet, 1))
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsInsufficientUnits(nf))

	iu := fmt.Errorf("service: %w", &InsufficientUnitsError{ID: 1})
	assert.True(t, IsInsufficientUnits(iu))
	assert.False(t, IsNotFound(iu))

	assert.False(t, IsNotFound(nil))
}
