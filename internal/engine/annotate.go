package engine

import (
	"fmt"

	"xlsxdiff/internal/table"
)

// Side selects which table of a comparison an annotation applies to.
type Side int

const (
	// SideLeft annotates the first (left) table.
	SideLeft Side = iota
	// SideRight annotates the second (right) table.
	SideRight
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// other names the opposite table in note text ("file 1"/"file 2").
func (s Side) other() string {
	if s == SideRight {
		return "file 1"
	}
	return "file 2"
}

// RowMark flags a worksheet row that exists only in the annotated table.
type RowMark struct {
	// Row is the 1-based worksheet row.
	Row int
	// Note is the comment text attached to the row's first key cell.
	Note string
}

// CellMark flags one differing cell. The mark is overlay metadata: the
// underlying cell value is untouched, the counterpart value travels only
// in the note text.
type CellMark struct {
	// Row is the 1-based worksheet row, Column the header name.
	Row    int
	Column string
	// Note carries the counterpart row and value from the other table.
	Note string
}

// AnnotatedTable is a table plus difference overlays. It references the
// original table rather than copying it; writers project the marks onto
// their own output representation (see internal/xlsx).
type AnnotatedTable struct {
	Table *table.Table
	Side  Side

	// KeyColumns are the matching key columns, used by writers to decide
	// which cell carries a row-level note.
	KeyColumns []string

	RowMarks  []RowMark
	CellMarks []CellMark
}

// Annotate projects a comparison result onto one of its tables: a RowMark
// for every key unique to this side, a CellMark for every CellDiff. Marks
// follow the result's deterministic ordering.
func Annotate(res *Result, side Side) *AnnotatedTable {
	at := &AnnotatedTable{
		Side:       side,
		KeyColumns: res.KeyColumns,
	}

	idx := res.Left
	unique := res.Partition.OnlyLeft
	if side == SideRight {
		idx = res.Right
		unique = res.Partition.OnlyRight
	}
	at.Table = idx.Table

	for _, k := range unique {
		at.RowMarks = append(at.RowMarks, RowMark{
			Row:  idx.Rows[k].Index,
			Note: "row exists only in this file",
		})
	}

	for _, d := range res.Diffs {
		row, counterpartRow := d.LeftRow, d.RightRow
		counterpart := d.Right
		if side == SideRight {
			row, counterpartRow = d.RightRow, d.LeftRow
			counterpart = d.Left
		}
		at.CellMarks = append(at.CellMarks, CellMark{
			Row:    row,
			Column: d.Column,
			Note: fmt.Sprintf("differs from %s row %d, column [%s]\n%s value: %s",
				side.other(), counterpartRow, d.Column, side.other(), table.Display(counterpart)),
		})
	}

	return at
}
