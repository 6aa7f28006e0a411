// Package table provides the in-memory tabular data model shared by every
// part of the workbench.
//
// A Table is an ordered set of named, typed columns of equal length. Cells
// hold Go values matching the column type (int64, float64, string,
// time.Time, bool); a nil cell is a null. Tables are immutable by
// convention: operations build new tables and may share column storage with
// their input, so nothing may write into a column's Values after
// construction. Use Clone when an independent copy is required.
package table

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Errors returned when building or addressing tables.
var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrLengthMismatch  = errors.New("column length mismatch")
	ErrTypeMismatch    = errors.New("value does not match column type")
	ErrEmptyColumnName = errors.New("empty column name")
)

// Type is the declared type of a column.
type Type int

const (
	Text Type = iota
	Int
	Float
	Time
	Bool
)

// String returns the type name used in APIs and reports.
func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Int:
		return "int"
	case Float:
		return "float"
	case Time:
		return "datetime"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseType converts a type name to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "text", "string", "object":
		return Text, nil
	case "int", "int64", "integer":
		return Int, nil
	case "float", "float64", "number":
		return Float, nil
	case "datetime", "datetime64[ns]", "time", "timestamp":
		return Time, nil
	case "bool", "boolean":
		return Bool, nil
	}
	return Text, fmt.Errorf("unknown column type %q", s)
}

// Numeric reports whether values of this type take part in arithmetic.
func (t Type) Numeric() bool {
	return t == Int || t == Float
}

// Categorical reports whether the type groups rows by discrete labels.
func (t Type) Categorical() bool {
	return t == Text || t == Bool
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Type   Type
	Values []any
}

// NewColumn is a convenience constructor.
func NewColumn(name string, typ Type, values ...any) *Column {
	return &Column{Name: name, Type: typ, Values: values}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool { return c.Values[i] == nil }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Float returns cell i as a float64 for numeric columns.
// The second result is false for nulls and non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	switch v := c.Values[i].(type) {
	case int64:
		return float64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// Floats returns the non-null numeric cells in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

// Format returns the display form of cell i.
func (c *Column) Format(i int) string { return FormatValue(c.Values[i]) }

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values) // cell values are immutable scalars
	return &Column{Name: c.Name, Type: c.Type, Values: values}
}

// Rename returns a column sharing storage under a different name.
func (c *Column) Rename(name string) *Column {
	return &Column{Name: name, Type: c.Type, Values: c.Values}
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table, validating names, lengths and cell types.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyColumnName)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		t.index[c.Name] = i
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.Name, c.Len(), t.rows)
		}
		for r, v := range c.Values {
			if !valueMatches(c.Type, v) {
				return nil, fmt.Errorf("%w: column %q row %d holds %T, want %s", ErrTypeMismatch, c.Name, r, v, c.Type)
			}
		}
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func valueMatches(typ Type, v any) bool {
	if v == nil {
		return true
	}
	switch typ {
	case Text:
		_, ok := v.(string)
		return ok
	case Int:
		_, ok := v.(int64)
		return ok
	case Float:
		_, ok := v.(float64)
		return ok
	case Time:
		_, ok := v.(time.Time)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	}
	return false
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return t.rows, len(t.cols) }

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.cols }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the table contains the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return t.cols[i], nil
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy sharing no column storage with t.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Clone()
	}
	out := &Table{cols: cols, index: make(map[string]int, len(cols)), rows: t.rows}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// Take returns a table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for j, c := range t.cols {
		values := make([]any, len(rows))
		for k, r := range rows {
			values[k] = c.Values[r]
		}
		cols[j] = &Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return &Table{cols: cols, index: t.index, rows: len(rows)}
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.rows {
		n = t.rows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.Take(rows)
}

// WithColumn returns a table in which the column with the same name as c is
// replaced by c. Other columns are shared.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	i, ok := t.index[c.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, c.Name)
	}
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	cols[i] = c
	return New(cols...)
}

// NullCount pairs a column with its number of null cells.
type NullCount struct {
	Column string `json:"column"`
	Nulls  int    `json:"nulls"`
}

// NullReport returns the columns that contain at least one null, in order.
func (t *Table) NullReport() []NullCount {
	var out []NullCount
	for _, c := range t.cols {
		if n := c.NullCount(); n > 0 {
			out = append(out, NullCount{Column: c.Name, Nulls: n})
		}
	}
	return out
}

// ColumnsWithNulls returns the names of columns holding at least one null.
func (t *Table) ColumnsWithNulls() []string {
	report := t.NullReport()
	names := make([]string, len(report))
	for i, r := range report {
		names[i] = r.Column
	}
	return names
}

// ColumnsOf returns the names of the columns matching keep.
func (t *Table) ColumnsOf(keep func(Type) bool) []string {
	var names []string
	for _, c := range t.cols {
		if keep(c.Type) {
			names = append(names, c.Name)
		}
	}
	return names
}
