package ops

import "github.com/JonMunkholm/wrangle/internal/table"

// DuplicateCount returns how many rows repeat an earlier row exactly.
func DuplicateCount(t *table.Table) int {
	_, dups := firstOccurrences(t)
	return dups
}

// DropDuplicates removes rows equal in every column to an earlier row,
// keeping the first occurrence. Remaining rows are renumbered contiguously.
// With no duplicates t is returned as is and the count is zero.
func DropDuplicates(t *table.Table) (*table.Table, int) {
	keep, dups := firstOccurrences(t)
	if dups == 0 {
		return t, 0
	}
	return t.Take(keep), dups
}

func firstOccurrences(t *table.Table) ([]int, int) {
	all := t.AllColumns()
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i, all)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	return keep, t.NumRows() - len(keep)
}
