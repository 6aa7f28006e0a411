package ops

import (
	"fmt"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// GroupParams configures Group.
type GroupParams struct {
	By      string `json:"by" validate:"required"`
	Measure string `json:"measure" validate:"required,nefield=By"`
	Agg     Agg    `json:"agg" validate:"required,oneof=mean sum count min max median"`
}

// CanGroup reports whether t has both a categorical and a numeric column.
func CanGroup(t *table.Table) bool {
	return len(t.ColumnsOf(table.Type.Categorical)) > 0 && len(t.ColumnsOf(table.Type.Numeric)) > 0
}

// Group aggregates one numeric column per distinct value of one categorical
// column. The result is sorted by group and excludes the null group. Tables
// without both a categorical and a numeric column fail with
// ErrInsufficientColumns before anything is computed.
func Group(t *table.Table, p GroupParams) (*table.Table, error) {
	if !CanGroup(t) {
		return nil, fmt.Errorf("%w: grouping needs a categorical and a numeric column", ErrInsufficientColumns)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	by, err := t.Column(p.By)
	if err != nil {
		return nil, invalid("column %q not found", p.By)
	}
	measure, err := t.Column(p.Measure)
	if err != nil {
		return nil, invalid("column %q not found", p.Measure)
	}
	if !by.Type.Categorical() {
		return nil, invalid("group column %q must be categorical, it holds %s values", by.Name, by.Type)
	}
	if !measure.Type.Numeric() {
		return nil, invalid("measure column %q must be numeric, it holds %s values", measure.Name, measure.Type)
	}
	typ, err := p.Agg.ResultType(measure.Type)
	if err != nil {
		return nil, err
	}

	groups := groupRows(t, []int{t.Index(by.Name)})
	keys := make([]any, len(groups))
	vals := make([]any, len(groups))
	for i, g := range groups {
		keys[i] = g.key[0]
		vals[i] = p.Agg.Apply(measure, g.rows)
	}
	return table.New(
		&table.Column{Name: by.Name, Type: by.Type, Values: keys},
		&table.Column{Name: measure.Name, Type: typ, Values: vals},
	)
}
