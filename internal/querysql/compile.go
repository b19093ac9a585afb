package querysql

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/houseledger/internal/query"
)

// HouseColumns is the column list every compiled query selects, in the order
// store.scanHouse expects.
var HouseColumns = []string{
	"id",
	"owners_name",
	"location",
	"house_type",
	"price",
	"availabile_units",
	"availability",
	"created_at",
	"updated_at",
}

// KeyColumn returns the column holding the folded search key of a text
// field (see query.Fold). The store fills these columns on every write.
func KeyColumn(f query.Field) string {
	return string(f) + "_key"
}

// SQLCompiler compiles query IR to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries end with ORDER BY ... id ASC for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	// Table is the houses table name.
	Table string
}

// NewSQLCompiler creates a compiler for the "houses" table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "houses"}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q query.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := query.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	switch sel := q.(type) {
	case query.Select:
		return c.compileSelect(sel)
	case *query.Select:
		return c.compileSelect(*sel)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q query.Select) (string, []any, error) {
	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(HouseColumns, ", "),
		c.Table,
		whereClause,
		c.orderBy(q.Order))

	return sql, params, nil
}

// orderBy renders the ORDER BY list. Text compares with COLLATE BINARY to
// match byte-wise ordering in memory; id ASC always closes the list.
func (c *SQLCompiler) orderBy(keys []query.OrderKey) string {
	parts := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		switch key.Field {
		case query.FieldOwnersName, query.FieldLocation, query.FieldHouseType:
			parts = append(parts, fmt.Sprintf("%s COLLATE BINARY %s", key.Field, dir))
		default:
			parts = append(parts, fmt.Sprintf("%s %s", key.Field, dir))
		}
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}

// compilePredicate compiles a predicate to a WHERE fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p query.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case query.Equals:
		return c.compileEquals(pred)
	case *query.Equals:
		return c.compileEquals(*pred)
	case query.ContainsFold:
		return c.compileContains(pred)
	case *query.ContainsFold:
		return c.compileContains(*pred)
	case query.And:
		return c.compileAnd(pred)
	case *query.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq query.Equals) (string, []any, error) {
	param, err := toParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", eq.Field, err)
	}
	return fmt.Sprintf("%s = ?", eq.Field), []any{param}, nil
}

// compileContains matches the folded needle against the folded key columns.
// instr on folded text is the SQL mirror of query.containsFold.
func (c *SQLCompiler) compileContains(cf query.ContainsFold) (string, []any, error) {
	if cf.Needle == "" {
		return "1 = 1", nil, nil
	}
	needle := query.Fold(cf.Needle)

	parts := make([]string, 0, len(cf.Fields))
	params := make([]any, 0, len(cf.Fields))
	for _, f := range cf.Fields {
		parts = append(parts, fmt.Sprintf("instr(%s, ?) > 0", KeyColumn(f)))
		params = append(params, needle)
	}
	return "(" + strings.Join(parts, " OR ") + ")", params, nil
}

func (c *SQLCompiler) compileAnd(and query.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return strings.Join(sqlParts, " AND "), allParams, nil
}

// toParam converts a literal to a driver-friendly parameter. SQLite
// integers are signed, so uint64 values above MaxInt64 are rejected.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return val, nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("value %d exceeds SQLite integer range", val)
		}
		return int64(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
