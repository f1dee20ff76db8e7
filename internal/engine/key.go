// Package engine implements the worksheet comparison core: key-based row
// matching, set partitioning, per-cell diffing, annotation overlays, and
// the text report.
//
// The package has no I/O. Callers hand it fully loaded [table.Table]
// values (see internal/xlsx) and consume the [Result]; it can be driven
// by the CLI, the web handlers, or tests without modification.
package engine

import (
	"fmt"
	"strings"

	"xlsxdiff/internal/table"
)

// keySeparator joins the key-column values of a composite key. A value
// containing the separator can in principle collide with a multi-column
// key, but matches the joined-key behavior this tool has always had.
const keySeparator = "||"

// Key is the composite matching key of a row: the normalized values of
// the key columns, in the order the caller listed them, joined with "||".
type Key string

// MissingColumnError reports a key column that is absent from a table's
// header. It aborts the run before any indexing happens.
type MissingColumnError struct {
	Table  string // table name, e.g. "left.xlsx[Sheet1]"
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s has no column %q", e.Table, e.Column)
}

// checkKeyColumns verifies every key column exists in the table's header.
// This is the single column-presence check for key columns; ExtractKey
// assumes it has already passed.
func checkKeyColumns(t *table.Table, keyColumns []string) error {
	if len(keyColumns) == 0 {
		return fmt.Errorf("at least one key column is required")
	}
	for _, col := range keyColumns {
		if !t.HasColumn(col) {
			return &MissingColumnError{Table: t.Name, Column: col}
		}
	}
	return nil
}

// ExtractKey derives a row's composite key from the named key columns.
func ExtractKey(row table.Row, keyColumns []string) Key {
	parts := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		parts[i] = table.Normalize(row.Value(col))
	}
	return Key(strings.Join(parts, keySeparator))
}
