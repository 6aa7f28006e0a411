package ops

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// Default names for the columns Melt creates.
const (
	DefaultVarName   = "Attribute"
	DefaultValueName = "Value"
)

// MeltParams configures Melt. At least two value columns are required:
// collapsing a single column only renames it. Value columns must be all
// numeric or all non-numeric; a label column among numbers belongs in
// IDColumns.
type MeltParams struct {
	IDColumns    []string `json:"id_columns" validate:"min=1,unique,dive,required"`
	ValueColumns []string `json:"value_columns" validate:"min=2,unique,dive,required"`
	VarName      string   `json:"var_name"`
	ValueName    string   `json:"value_name"`
}

func (p *MeltParams) defaults() {
	if p.VarName == "" {
		p.VarName = DefaultVarName
	}
	if p.ValueName == "" {
		p.ValueName = DefaultValueName
	}
}

// Melt turns value columns into rows (wide to long). The result holds the id
// columns, a VarName column with the original header of each value and a
// ValueName column with the value itself. Rows are grouped by value column,
// in the order given, and keep the source row order within each group.
func Melt(t *table.Table, p MeltParams) (*table.Table, error) {
	p.defaults()
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := requireColumns(t.Has, p.IDColumns...); err != nil {
		return nil, err
	}
	if err := requireColumns(t.Has, p.ValueColumns...); err != nil {
		return nil, err
	}
	for _, v := range p.ValueColumns {
		if slices.Contains(p.IDColumns, v) {
			return nil, invalid("column %q cannot be both static and collapsed", v)
		}
	}
	if p.VarName == p.ValueName {
		return nil, invalid("new column names must differ, both are %q", p.VarName)
	}
	for _, name := range []string{p.VarName, p.ValueName} {
		if slices.Contains(p.IDColumns, name) {
			return nil, invalid("new column name %q clashes with a static column", name)
		}
	}

	valueCols := make([]*table.Column, len(p.ValueColumns))
	for i, name := range p.ValueColumns {
		valueCols[i], _ = t.Column(name)
	}
	if err := sameKind(valueCols); err != nil {
		return nil, err
	}
	valueType := commonType(valueCols)

	n := t.NumRows()
	total := n * len(valueCols)
	out := make([]*table.Column, 0, len(p.IDColumns)+2)
	for _, name := range p.IDColumns {
		src, _ := t.Column(name)
		values := make([]any, 0, total)
		for range valueCols {
			values = append(values, src.Values...)
		}
		out = append(out, &table.Column{Name: name, Type: src.Type, Values: values})
	}

	labels := make([]any, 0, total)
	values := make([]any, 0, total)
	for _, c := range valueCols {
		for i := 0; i < n; i++ {
			labels = append(labels, c.Name)
			values = append(values, castCell(c.Values[i], valueType))
		}
	}
	out = append(out,
		&table.Column{Name: p.VarName, Type: table.Text, Values: labels},
		&table.Column{Name: p.ValueName, Type: valueType, Values: values},
	)

	res, err := table.New(out...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return res, nil
}

// sameKind rejects value columns that mix numeric and categorical data.
func sameKind(cols []*table.Column) error {
	var numeric, label *table.Column
	for _, c := range cols {
		if c.Type.Numeric() {
			if numeric == nil {
				numeric = c
			}
		} else if label == nil {
			label = c
		}
	}
	if numeric != nil && label != nil {
		return invalid("cannot collapse %s column %q together with numeric column %q; move %q to the static columns",
			label.Type, label.Name, numeric.Name, label.Name)
	}
	return nil
}

// commonType is the narrowest type holding every column's values: the shared
// type when all agree, float for a mix of int and float, text otherwise.
func commonType(cols []*table.Column) table.Type {
	typ := cols[0].Type
	for _, c := range cols[1:] {
		switch {
		case c.Type == typ:
		case c.Type.Numeric() && typ.Numeric():
			typ = table.Float
		default:
			return table.Text
		}
	}
	return typ
}

// castCell converts a cell to the widened type chosen by commonType.
func castCell(v any, typ table.Type) any {
	if v == nil {
		return nil
	}
	switch typ {
	case table.Float:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case table.Text:
		if _, ok := v.(string); !ok {
			return table.FormatValue(v)
		}
	}
	return v
}
