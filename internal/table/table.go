// Package table defines the in-memory model for a loaded worksheet.
//
// A Table is fully materialized before comparison starts: an ordered list
// of column names plus an ordered list of rows, each row mapping column
// name to the raw cell value. Tables are read-only after load; the
// comparison engine never mutates them.
package table

// Value is a single cell value as loaded from a worksheet.
//
// Raw holds the cell text exactly as the loader produced it. Empty marks
// cells that were absent or blank in the source; an empty Raw with
// Empty=false can still occur for cells that held only whitespace.
type Value struct {
	Raw   string
	Empty bool
}

// Row is one data row of a Table.
//
// Index is the 1-based worksheet row number (the header occupies row 1,
// so data rows start at 2). Cells maps column name to value; columns
// missing from a short row are simply absent from the map.
type Row struct {
	Index int
	Cells map[string]Value
}

// Value returns the cell for the named column. Missing cells come back
// as an empty Value, which the normalization policy treats the same as
// a blank cell.
func (r Row) Value(column string) Value {
	v, ok := r.Cells[column]
	if !ok {
		return Value{Empty: true}
	}
	return v
}

// Table is a loaded worksheet: ordered columns, ordered rows.
type Table struct {
	// Name identifies the table in reports, typically "file.xlsx[Sheet1]".
	Name string

	// Columns are the header names in worksheet order.
	Columns []string

	// Rows are the data rows in worksheet order.
	Rows []Row
}

// HasColumn reports whether the table's header contains the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnIndex returns the 0-based position of the named column in the
// header, or -1 if the column is absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
