package table

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Equal reports whether a and b are structurally equal: same column names
// and types in the same order, same row count, and equal cells. NaN equals
// NaN and times compare by instant.
func Equal(a, b *Table) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.rows != b.rows || len(a.cols) != len(b.cols) {
		return false
	}
	for i, ca := range a.cols {
		cb := b.cols[i]
		if ca.Name != cb.Name || ca.Type != cb.Type {
			return false
		}
		for r := range ca.Values {
			if !CellEqual(ca.Values[r], cb.Values[r]) {
				return false
			}
		}
	}
	return true
}

// CellEqual compares two cells of the same column type.
func CellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	default:
		return a == b
	}
}

// Compare orders two cells of the same type. Nulls sort last.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	switch x := a.(type) {
	case int64:
		return cmpOrdered(x, b.(int64))
	case float64:
		return cmpOrdered(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(FormatValue(a), FormatValue(b))
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// FormatValue renders a cell for display and delimited-text export.
// Nulls render as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	}
	return ""
}

// RowKey encodes the cells of row i restricted to cols into a string
// usable as a map key. Strings are length-prefixed so distinct typed values
// never collide, whatever bytes they hold.
func (t *Table) RowKey(i int, cols []int) string {
	var b strings.Builder
	for _, j := range cols {
		writeKeyCell(&b, t.cols[j].Values[i])
		b.WriteByte(0x1f)
	}
	return b.String()
}

// AllColumns returns the positions 0..n-1, for use with RowKey.
func (t *Table) AllColumns() []int {
	idx := make([]int, len(t.cols))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func writeKeyCell(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteByte('n')
	case float64:
		b.WriteByte('f')
		switch {
		case math.IsNaN(x):
			b.WriteString("NaN")
		case x == 0:
			b.WriteByte('0')
		default:
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
	case int64:
		b.WriteByte('i')
		b.WriteString(strconv.FormatInt(x, 10))
	case time.Time:
		b.WriteByte('t')
		b.WriteString(strconv.FormatInt(x.Unix(), 10))
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(x.Nanosecond()))
	case bool:
		b.WriteByte('b')
		b.WriteString(strconv.FormatBool(x))
	case string:
		b.WriteByte('s')
		b.WriteString(strconv.Itoa(len(x)))
		b.WriteByte(':')
		b.WriteString(x)
	}
}

// Fingerprint returns a 64-bit digest of the full table content, including
// column names and types. Equal tables have equal fingerprints.
func (t *Table) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(t.rows))
	d.Write(buf[:])
	for _, c := range t.cols {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(c.Name)))
		d.Write(buf[:])
		d.WriteString(c.Name)
		d.Write([]byte{byte(c.Type)})
		for _, v := range c.Values {
			var b strings.Builder
			writeKeyCell(&b, v)
			d.WriteString(b.String())
			d.Write([]byte{0x1f})
		}
		d.Write([]byte{0x1e})
	}
	return d.Sum64()
}
