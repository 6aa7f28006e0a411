package ops

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// Conversion targets.
const (
	TargetInt      = "int"
	TargetFloat    = "float"
	TargetDatetime = "datetime"
	TargetText     = "text"
)

// ConvertParams configures Convert.
type ConvertParams struct {
	Column string `json:"column" validate:"required"`
	Target string `json:"target" validate:"required,oneof=int float datetime text"`
}

// Convert reinterprets one column under a new type. Nulls stay null. Text is
// parsed leniently (currency symbols, thousands separators, common date
// layouts). Any value that cannot be represented fails the whole conversion
// with ErrConversion, naming the first offending row.
func Convert(t *table.Table, p ConvertParams) (*table.Table, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	col, err := t.Column(p.Column)
	if err != nil {
		return nil, invalid("column %q not found", p.Column)
	}
	target, err := table.ParseType(p.Target)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if target == col.Type {
		return t, nil
	}

	values := make([]any, len(col.Values))
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		out, ok := convertCell(v, target)
		if !ok {
			return nil, fmt.Errorf("%w: row %d value %q in %q cannot be read as %s",
				ErrConversion, i+1, table.FormatValue(v), col.Name, target)
		}
		values[i] = out
	}
	return t.WithColumn(&table.Column{Name: col.Name, Type: target, Values: values})
}

func convertCell(v any, target table.Type) (any, bool) {
	switch target {
	case table.Text:
		return table.FormatValue(v), true

	case table.Int:
		switch x := v.(type) {
		case int64:
			return x, true
		case float64:
			return table.FloatToInt(x)
		case bool:
			return boolNumber(x), true
		case string:
			return table.ParseInteger(x)
		}

	case table.Float:
		switch x := v.(type) {
		case int64:
			return float64(x), true
		case float64:
			return x, true
		case bool:
			return float64(boolNumber(x)), true
		case string:
			return table.ParseNumber(x)
		}

	case table.Time:
		switch x := v.(type) {
		case time.Time:
			return x, true
		case string:
			return table.ParseTime(x)
		}
	}
	return nil, false
}

func boolNumber(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
