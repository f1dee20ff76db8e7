package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"xlsxdiff/internal/engine"
)

// Marker colors, matching the report the tool has always produced:
// green rows exist only in one file, yellow cells with red text differ.
const (
	uniqueRowFill = "90EE90"
	diffCellFill  = "FFFF00"
	diffFontColor = "FF0000"
)

// commentAuthor labels the attached notes in the output workbook.
const commentAuthor = "xlsxdiff"

// WriteAnnotated copies the compared worksheet of the source workbook and
// projects the annotation overlays onto it: every unique row is filled
// green with a note on its first key cell, every differing cell is filled
// yellow with red text and a note carrying the counterpart value. Cell
// values are never rewritten; only styles and comments are added. Other
// sheets of the source workbook are dropped from the output.
func WriteAnnotated(srcPath, sheet string, at *engine.AnnotatedTable, dstPath string) error {
	f, cleanup, err := openSanitized(srcPath)
	if err != nil {
		return err
	}
	defer cleanup()
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return &LoadError{Path: srcPath, Err: fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)}
	}
	for _, other := range f.GetSheetList() {
		if other != sheet {
			if err := f.DeleteSheet(other); err != nil {
				return fmt.Errorf("drop sheet %q: %w", other, err)
			}
		}
	}

	rowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{uniqueRowFill}},
	})
	if err != nil {
		return fmt.Errorf("unique-row style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{diffCellFill}},
		Font: &excelize.Font{Color: diffFontColor},
	})
	if err != nil {
		return fmt.Errorf("diff-cell style: %w", err)
	}

	// The note for a unique row sits on its first key column so it is
	// visible where the reader will look first.
	noteCol := 0
	if len(at.KeyColumns) > 0 {
		if i := at.Table.ColumnIndex(at.KeyColumns[0]); i >= 0 {
			noteCol = i
		}
	}

	for _, rm := range at.RowMarks {
		first, err := excelize.CoordinatesToCellName(1, rm.Row)
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(at.Table.Columns), rm.Row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, first, last, rowStyle); err != nil {
			return fmt.Errorf("mark row %d: %w", rm.Row, err)
		}

		noteCell, err := excelize.CoordinatesToCellName(noteCol+1, rm.Row)
		if err != nil {
			return err
		}
		if err := addNote(f, sheet, noteCell, rm.Note); err != nil {
			return err
		}
	}

	for _, cm := range at.CellMarks {
		col := at.Table.ColumnIndex(cm.Column)
		if col < 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, cm.Row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, cellStyle); err != nil {
			return fmt.Errorf("mark cell %s: %w", cell, err)
		}
		if err := addNote(f, sheet, cell, cm.Note); err != nil {
			return err
		}
	}

	if err := f.SaveAs(dstPath); err != nil {
		return fmt.Errorf("save %s: %w", dstPath, err)
	}
	return nil
}

func addNote(f *excelize.File, sheet, cell, text string) error {
	err := f.AddComment(sheet, excelize.Comment{
		Cell:   cell,
		Author: commentAuthor,
		Paragraph: []excelize.RichTextRun{
			{Text: text},
		},
	})
	if err != nil {
		return fmt.Errorf("note on %s: %w", cell, err)
	}
	return nil
}
