package engine

import (
	"xlsxdiff/internal/table"
)

// Index maps composite keys to rows for one table.
//
// Duplicate keys resolve first-wins: the first row holding a key stays in
// the index, later rows with the same key are counted but ignored. The
// duplicates are surfaced as diagnostics so they are never silently lost.
type Index struct {
	Table *table.Table

	// Order lists keys by first appearance in the table. All downstream
	// iteration (partitioning, diffing, reporting) follows this order so
	// identical inputs always produce identical reports.
	Order []Key

	// Rows maps each key to its first occurrence.
	Rows map[Key]table.Row

	// Duplicates lists keys that occurred more than once, in first-appearance
	// order. Extra occurrences beyond the first are counted in DupRows.
	Duplicates []Key

	// DupRows counts the ignored extra rows per duplicate key.
	DupRows map[Key]int
}

// BuildIndex indexes a table by composite key. It fails only when a key
// column is missing from the header; duplicate keys are a diagnostic,
// not an error. Runs in O(n) for n rows.
func BuildIndex(t *table.Table, keyColumns []string) (*Index, error) {
	if err := checkKeyColumns(t, keyColumns); err != nil {
		return nil, err
	}

	idx := &Index{
		Table:   t,
		Order:   make([]Key, 0, len(t.Rows)),
		Rows:    make(map[Key]table.Row, len(t.Rows)),
		DupRows: make(map[Key]int),
	}

	for _, row := range t.Rows {
		k := ExtractKey(row, keyColumns)
		if _, seen := idx.Rows[k]; seen {
			if idx.DupRows[k] == 0 {
				idx.Duplicates = append(idx.Duplicates, k)
			}
			idx.DupRows[k]++
			continue
		}
		idx.Rows[k] = row
		idx.Order = append(idx.Order, k)
	}

	return idx, nil
}

// Has reports whether the index contains the key.
func (idx *Index) Has(k Key) bool {
	_, ok := idx.Rows[k]
	return ok
}

// DuplicateRowCount returns the total number of rows ignored because
// their key was already indexed.
func (idx *Index) DuplicateRowCount() int {
	n := 0
	for _, c := range idx.DupRows {
		n += c
	}
	return n
}
