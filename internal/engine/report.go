package engine

import (
	"fmt"
	"strings"
	"time"

	"xlsxdiff/internal/table"
)

// ReportOptions controls the report header and timestamp.
type ReportOptions struct {
	// LeftName/RightName label the two inputs, typically file names.
	LeftName  string
	RightName string

	// Now supplies the report timestamp; zero means omit the line
	// entirely, which keeps repeated runs byte-identical.
	Now time.Time
}

const reportRule = 60

// BuildReport renders a comparison result as a human-readable text
// report. Ordering follows the result: unique rows and diffs appear in
// source-table first-appearance order, columns in shared-column order,
// so the output is stable across reruns on identical inputs.
func BuildReport(res *Result, opts ReportOptions) string {
	var b strings.Builder
	bar := strings.Repeat("=", reportRule)
	rule := strings.Repeat("-", reportRule)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(bar)
	line("Worksheet comparison result")
	if !opts.Now.IsZero() {
		line("Compared at: %s", opts.Now.Format("2006-01-02 15:04:05"))
	}
	line(bar)
	line("File 1: %s", nameOrTable(opts.LeftName, res.Left.Table))
	line("File 2: %s", nameOrTable(opts.RightName, res.Right.Table))
	line("Key columns: %s", strings.Join(res.KeyColumns, ", "))
	line(rule)
	line("File 1: %d rows, %d columns", len(res.Left.Table.Rows), len(res.Left.Table.Columns))
	line("File 2: %d rows, %d columns", len(res.Right.Table.Rows), len(res.Right.Table.Columns))

	line(rule)
	line("Row-level differences:")
	line("  only in file 1: %d", len(res.Partition.OnlyLeft))
	line("  only in file 2: %d", len(res.Partition.OnlyRight))
	line("  in both files:  %d", len(res.Partition.Common))

	if len(res.Partition.OnlyLeft) > 0 {
		line(rule)
		line("Rows only in file 1:")
		for _, k := range res.Partition.OnlyLeft {
			line("  [file 1 row %d] key: %s", res.Left.Rows[k].Index, k)
		}
	}
	if len(res.Partition.OnlyRight) > 0 {
		line(rule)
		line("Rows only in file 2:")
		for _, k := range res.Partition.OnlyRight {
			line("  [file 2 row %d] key: %s", res.Right.Rows[k].Index, k)
		}
	}

	line(rule)
	line("Cell differences in common rows:")
	if len(res.Diffs) == 0 {
		line("  none")
	} else {
		byKey := res.DiffsByKey()
		for _, k := range res.Partition.Common {
			diffs := byKey[k]
			if len(diffs) == 0 {
				continue
			}
			line("  key: %s [file 1 row %d vs file 2 row %d]",
				k, diffs[0].LeftRow, diffs[0].RightRow)
			for _, d := range diffs {
				line("    column [%s]: file 1='%s' vs file 2='%s'",
					d.Column, table.Display(d.Left), table.Display(d.Right))
			}
		}
	}

	writeDuplicates(line, rule, "file 1", res.Left)
	writeDuplicates(line, rule, "file 2", res.Right)

	if len(res.Schema.LeftOnly) > 0 || len(res.Schema.RightOnly) > 0 {
		line(rule)
		line("Column-level differences:")
		if len(res.Schema.LeftOnly) > 0 {
			line("  columns only in file 1: %s", strings.Join(res.Schema.LeftOnly, ", "))
		}
		if len(res.Schema.RightOnly) > 0 {
			line("  columns only in file 2: %s", strings.Join(res.Schema.RightOnly, ", "))
		}
	}

	line(bar)
	line("Comparison complete: %d differing rows, %d differing cells",
		res.DiffRowCount(), len(res.Diffs))
	line(bar)

	return b.String()
}

func writeDuplicates(line func(string, ...any), rule, label string, idx *Index) {
	if len(idx.Duplicates) == 0 {
		return
	}
	line(rule)
	line("Duplicate keys in %s (first occurrence used):", label)
	for _, k := range idx.Duplicates {
		line("  key: %s (%d extra rows ignored)", k, idx.DupRows[k])
	}
}

func nameOrTable(name string, t *table.Table) string {
	if name != "" {
		return name
	}
	return t.Name
}
