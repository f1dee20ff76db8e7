// Package xlsx loads worksheets into the table model and writes annotated
// copies back out. It is the only package that touches spreadsheet files;
// the comparison engine sees fully materialized tables.
package xlsx

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"xlsxdiff/internal/table"
)

// LoadError wraps any failure to read a file as tabular data, including a
// missing sheet. Load failures abort the comparison run before indexing.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrSheetNotFound is reported when the named worksheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// SheetInfo describes one worksheet for discovery: its name and header
// columns, in workbook/worksheet order.
type SheetInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Info lists the workbook's sheets and their header columns. Used by the
// CLI for error hints and by the web upload flow for sheet/column
// discovery before a comparison is triggered.
func Info(path string) ([]SheetInfo, error) {
	f, cleanup, err := openSanitized(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	defer f.Close()

	var infos []SheetInfo
	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		var header []string
		if rows.Next() {
			header, err = rows.Columns()
			if err != nil {
				rows.Close()
				return nil, &LoadError{Path: path, Err: err}
			}
		}
		rows.Close()
		infos = append(infos, SheetInfo{Name: sheet, Columns: header})
	}
	return infos, nil
}

// LoadTable reads one worksheet into a Table. Row 1 is the header; data
// rows keep their worksheet row numbers so annotations land on the right
// cells. Rows with every cell blank are skipped.
func LoadTable(path, sheet string) (*table.Table, error) {
	f, cleanup, err := openSanitized(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)}
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(raw) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("sheet %q has no header row", sheet)}
	}

	t := &table.Table{
		Name:    fmt.Sprintf("%s[%s]", filepath.Base(path), sheet),
		Columns: raw[0],
	}

	for i, cells := range raw[1:] {
		row := table.Row{
			Index: i + 2, // data starts at worksheet row 2
			Cells: make(map[string]table.Value, len(t.Columns)),
		}
		empty := true
		for j, col := range t.Columns {
			if j < len(cells) && cells[j] != "" {
				row.Cells[col] = table.Value{Raw: cells[j]}
				empty = false
			} else {
				row.Cells[col] = table.Value{Empty: true}
			}
		}
		if empty {
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// openSanitized opens a workbook after stripping the non-standard
// attributes some export tools leave on dataValidations elements. The
// returned cleanup removes the sanitized temp copy and must always be
// called.
func openSanitized(path string) (*excelize.File, func(), error) {
	clean, cleanup, err := Sanitize(path)
	if err != nil {
		return nil, nil, &LoadError{Path: path, Err: err}
	}
	f, err := excelize.OpenFile(clean)
	if err != nil {
		cleanup()
		return nil, nil, &LoadError{Path: path, Err: err}
	}
	return f, cleanup, nil
}
