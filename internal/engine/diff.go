package engine

import (
	"xlsxdiff/internal/table"
)

// CellDiff records one differing cell in a shared column of a common row.
// Left/Right are the raw values from each side; the normalized forms were
// unequal. The annotator and report builder consume this sequence and
// never re-derive differences.
type CellDiff struct {
	Key    Key
	Column string

	// LeftRow/RightRow are the 1-based worksheet rows holding the cell.
	LeftRow  int
	RightRow int

	Left  table.Value
	Right table.Value
}

// Schema is the reconciled column view of the two tables, computed once
// before diffing. Shared lists the columns present in both headers, in
// left-table order; cell comparison is restricted to Shared. One-sided
// columns are a table-level schema note, never a CellDiff.
type Schema struct {
	Shared    []string
	LeftOnly  []string
	RightOnly []string
}

// reconcileSchema intersects the two headers.
func reconcileSchema(left, right *table.Table) Schema {
	var s Schema
	for _, c := range left.Columns {
		if right.HasColumn(c) {
			s.Shared = append(s.Shared, c)
		} else {
			s.LeftOnly = append(s.LeftOnly, c)
		}
	}
	for _, c := range right.Columns {
		if !left.HasColumn(c) {
			s.RightOnly = append(s.RightOnly, c)
		}
	}
	return s
}

// Result is the complete outcome of one comparison run. All fields are
// derived, read-only, and ordered deterministically.
type Result struct {
	Left  *Index
	Right *Index

	KeyColumns []string
	Schema     Schema
	Partition  Partition

	// Diffs holds every differing cell of every common row, ordered by
	// the left table's key order, then shared-column order within a row.
	Diffs []CellDiff
}

// DiffRowCount returns the number of common rows with at least one
// differing cell.
func (r *Result) DiffRowCount() int {
	seen := make(map[Key]struct{})
	for _, d := range r.Diffs {
		seen[d.Key] = struct{}{}
	}
	return len(seen)
}

// DiffsByKey groups the diff sequence per key, preserving order.
func (r *Result) DiffsByKey() map[Key][]CellDiff {
	m := make(map[Key][]CellDiff)
	for _, d := range r.Diffs {
		m[d.Key] = append(m[d.Key], d)
	}
	return m
}

// Compare runs the full pipeline on two loaded tables: index both sides,
// partition the key sets, and diff every shared column of every common
// row. It fails fast when a key column is missing from either header;
// duplicate keys and schema mismatches are diagnostics on the Result.
func Compare(left, right *table.Table, keyColumns []string) (*Result, error) {
	li, err := BuildIndex(left, keyColumns)
	if err != nil {
		return nil, err
	}
	ri, err := BuildIndex(right, keyColumns)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Left:       li,
		Right:      ri,
		KeyColumns: keyColumns,
		Schema:     reconcileSchema(left, right),
		Partition:  BuildPartition(li, ri),
	}

	for _, k := range res.Partition.Common {
		lrow := li.Rows[k]
		rrow := ri.Rows[k]
		for _, col := range res.Schema.Shared {
			lv := lrow.Value(col)
			rv := rrow.Value(col)
			if table.Equal(lv, rv) {
				continue
			}
			res.Diffs = append(res.Diffs, CellDiff{
				Key:      k,
				Column:   col,
				LeftRow:  lrow.Index,
				RightRow: rrow.Index,
				Left:     lv,
				Right:    rv,
			})
		}
	}

	return res, nil
}
