package querysql

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/houseledger/internal/query"
)

const selectPrefix = "SELECT id, owners_name, location, house_type, price, availabile_units, availability, created_at, updated_at FROM houses"

func TestCompile_All(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(query.SelectAll())
	require.NoError(t, err)

	assert.Equal(t, selectPrefix+" ORDER BY id ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_Available(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(query.SelectAvailable())
	require.NoError(t, err)

	assert.Equal(t, selectPrefix+" WHERE availability = ? ORDER BY id ASC", sql)
	assert.Equal(t, []any{true}, params)
}

func TestCompile_PriceIsParameterized(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(query.SelectPrice(1200))
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE price = ?")
	assert.NotContains(t, sql, "1200") // Value NOT in SQL
	assert.Equal(t, []any{int64(1200)}, params)
}

func TestCompile_TextSearchUsesFoldedKeys(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(query.SelectText("LAGOS"))
	require.NoError(t, err)

	assert.Equal(t, selectPrefix+
		" WHERE (instr(owners_name_key, ?) > 0 OR instr(house_type_key, ?) > 0 OR instr(location_key, ?) > 0)"+
		" ORDER BY id ASC", sql)
	assert.Equal(t, []any{"lagos", "lagos", "lagos"}, params)
	assert.NotContains(t, sql, "LAGOS")
}

func TestCompile_EmptyTextMatchesAll(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(query.SelectText(""))
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1")
	assert.Empty(t, params)
}

func TestCompile_SortByName(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(query.SelectByName())
	require.NoError(t, err)
	assert.Equal(t, selectPrefix+" ORDER BY owners_name COLLATE BINARY ASC, id ASC", sql)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	queries := []query.Query{
		query.SelectAll(),
		query.SelectAvailable(),
		query.SelectText("x"),
		query.SelectPrice(1),
		query.SelectByName(),
		&query.Select{Order: []query.OrderKey{{Field: query.FieldPrice, Desc: true}}},
	}
	for _, q := range queries {
		sql, _, err := NewSQLCompiler().Compile(q)
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY")
		assert.Regexp(t, `id ASC$`, sql)
	}
}

func TestCompile_And(t *testing.T) {
	q := query.Select{
		Filter: &query.And{Predicates: []query.Predicate{
			query.Equals{Field: query.FieldAvailability, Value: true},
			&query.Equals{Field: query.FieldHouseType, Value: "flat"},
		}},
		Order: []query.OrderKey{{Field: query.FieldPrice, Desc: true}},
	}
	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	assert.Equal(t, selectPrefix+" WHERE availability = ? AND house_type = ? ORDER BY price DESC, id ASC", sql)
	assert.Equal(t, []any{true, "flat"}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(query.Select{Filter: query.And{}})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1")
	assert.Empty(t, params)
}

func TestCompile_Errors(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(nil)
	assert.Error(t, err)

	_, _, err = c.Compile(query.Select{Filter: query.Equals{Field: "colour", Value: "red"}})
	assert.Error(t, err)

	_, _, err = c.Compile(query.SelectPrice(math.MaxUint64))
	assert.Error(t, err)
}

func TestCompile_CustomTable(t *testing.T) {
	c := &SQLCompiler{Table: "houses_archive"}
	sql, _, err := c.Compile(query.SelectAll())
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM houses_archive ORDER BY")
}
