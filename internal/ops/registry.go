package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// Result is the outcome of running a committing operator.
type Result struct {
	Table *table.Table
	// Affected counts the rows or cells the operator touched, where that
	// is meaningful (rows dropped, cells filled, duplicates removed).
	Affected int
	Message  string
}

// Func runs an operator with JSON-encoded parameters.
type Func func(t *table.Table, params json.RawMessage) (Result, error)

// Operator is a named transformation whose result replaces the working table.
type Operator struct {
	Name  string
	Label string
	Run   Func
}

var (
	registry   = make(map[string]Operator)
	registryMu sync.RWMutex
)

// Register adds an operator. It panics if the name is taken.
func Register(op Operator) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[op.Name]; exists {
		panic(fmt.Sprintf("operator already registered: %s", op.Name))
	}
	registry[op.Name] = op
}

// Lookup returns the operator registered under name.
func Lookup(name string) (Operator, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	op, ok := registry[name]
	if !ok {
		return Operator{}, fmt.Errorf("%w: %q", ErrUnknownOperator, name)
	}
	return op, nil
}

// All returns the registered operators sorted by name.
func All() []Operator {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Operator, 0, len(registry))
	for _, op := range registry {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// decodeParams unmarshals raw into P, rejecting unknown fields. Empty input
// yields the zero value.
func decodeParams[P any](raw json.RawMessage) (P, error) {
	var p P
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, nil
}

func init() {
	Register(Operator{Name: "melt", Label: "Melt (wide to long)", Run: func(t *table.Table, raw json.RawMessage) (Result, error) {
		p, err := decodeParams[MeltParams](raw)
		if err != nil {
			return Result{}, err
		}
		out, err := Melt(t, p)
		if err != nil {
			return Result{}, err
		}
		return Result{Table: out, Message: fmt.Sprintf("Melted %d columns into %d rows.", len(p.ValueColumns), out.NumRows())}, nil
	}})

	Register(Operator{Name: "pivot", Label: "Pivot (long to wide)", Run: func(t *table.Table, raw json.RawMessage) (Result, error) {
		p, err := decodeParams[PivotParams](raw)
		if err != nil {
			return Result{}, err
		}
		out, err := Pivot(t, p)
		if err != nil {
			return Result{}, err
		}
		return Result{Table: out, Message: fmt.Sprintf("Pivoted %q into %d columns.", p.Columns, out.NumCols()-len(p.Index))}, nil
	}})

	Register(Operator{Name: "clean", Label: "Handle missing values", Run: func(t *table.Table, raw json.RawMessage) (Result, error) {
		p, err := decodeParams[CleanParams](raw)
		if err != nil {
			return Result{}, err
		}
		out, n, err := Clean(t, p)
		if err != nil {
			return Result{}, err
		}
		return Result{Table: out, Affected: n, Message: fmt.Sprintf("Applied %s to %q (%d affected).", p.Strategy.Label(), p.Column, n)}, nil
	}})

	Register(Operator{Name: "dedupe", Label: "Remove duplicate rows", Run: func(t *table.Table, _ json.RawMessage) (Result, error) {
		out, n := DropDuplicates(t)
		if n == 0 {
			return Result{Table: out, Message: "No duplicate rows found."}, nil
		}
		return Result{Table: out, Affected: n, Message: fmt.Sprintf("%d duplicate rows removed successfully.", n)}, nil
	}})

	Register(Operator{Name: "convert", Label: "Convert column type", Run: func(t *table.Table, raw json.RawMessage) (Result, error) {
		p, err := decodeParams[ConvertParams](raw)
		if err != nil {
			return Result{}, err
		}
		out, err := Convert(t, p)
		if err != nil {
			return Result{}, err
		}
		return Result{Table: out, Message: fmt.Sprintf("Converted %s to %s.", p.Column, p.Target)}, nil
	}})
}
