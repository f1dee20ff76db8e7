package engine

import (
	"strings"
	"testing"
)

func TestAnnotateLeft(t *testing.T) {
	left := mkTable("l", []string{"id", "name"},
		[]string{"1", "Ann"},
		[]string{"2", "Bob"},
	)
	right := mkTable("r", []string{"id", "name"},
		[]string{"1", "Anne"},
		[]string{"3", "Cid"},
	)

	res, err := Compare(left, right, []string{"id"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	at := Annotate(res, SideLeft)
	if at.Table != left {
		t.Error("annotated table is not the left table")
	}

	if len(at.RowMarks) != 1 {
		t.Fatalf("RowMarks = %+v, want one mark for key 2", at.RowMarks)
	}
	if at.RowMarks[0].Row != 3 {
		t.Errorf("RowMark.Row = %d, want worksheet row 3", at.RowMarks[0].Row)
	}

	if len(at.CellMarks) != 1 {
		t.Fatalf("CellMarks = %+v, want one mark", at.CellMarks)
	}
	cm := at.CellMarks[0]
	if cm.Row != 2 || cm.Column != "name" {
		t.Errorf("CellMark at row %d column %q, want row 2 name", cm.Row, cm.Column)
	}
	if !strings.Contains(cm.Note, "Anne") {
		t.Errorf("CellMark note %q missing counterpart value Anne", cm.Note)
	}
	if !strings.Contains(cm.Note, "file 2") {
		t.Errorf("CellMark note %q should reference file 2", cm.Note)
	}
}

func TestAnnotateRightMirrorsValues(t *testing.T) {
	left := mkTable("l", []string{"id", "v"}, []string{"1", "old"})
	right := mkTable("r", []string{"id", "v"}, []string{"1", "new"})

	res, err := Compare(left, right, []string{"id"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	at := Annotate(res, SideRight)
	if at.Table != right {
		t.Error("annotated table is not the right table")
	}
	if len(at.CellMarks) != 1 {
		t.Fatalf("CellMarks = %+v, want one", at.CellMarks)
	}
	// The note on the right table carries the LEFT value.
	if !strings.Contains(at.CellMarks[0].Note, "old") {
		t.Errorf("note %q missing left value old", at.CellMarks[0].Note)
	}
	if !strings.Contains(at.CellMarks[0].Note, "file 1") {
		t.Errorf("note %q should reference file 1", at.CellMarks[0].Note)
	}
}

func TestAnnotateDoesNotMutateValues(t *testing.T) {
	left := mkTable("l", []string{"id", "v"}, []string{"1", "old"})
	right := mkTable("r", []string{"id", "v"}, []string{"1", "new"})

	res, err := Compare(left, right, []string{"id"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	Annotate(res, SideLeft)
	Annotate(res, SideRight)

	if got := left.Rows[0].Value("v").Raw; got != "old" {
		t.Errorf("left value mutated to %q", got)
	}
	if got := right.Rows[0].Value("v").Raw; got != "new" {
		t.Errorf("right value mutated to %q", got)
	}
}

func TestAnnotateCleanRunHasNoMarks(t *testing.T) {
	tbl := mkTable("t", []string{"id", "v"}, []string{"1", "x"})
	res, err := Compare(tbl, tbl, []string{"id"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	at := Annotate(res, SideLeft)
	if len(at.RowMarks) != 0 || len(at.CellMarks) != 0 {
		t.Errorf("clean run produced marks: %+v %+v", at.RowMarks, at.CellMarks)
	}
}
