package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"xlsxdiff/internal/engine"
	"xlsxdiff/internal/xlsx"
)

type compareOptions struct {
	file1, file2   string
	sheet1, sheet2 string
	keys           []string
	output         string
	mark           bool
}

// runCompare loads both worksheets, runs the comparison, and emits the
// report (stdout, plus --output when given) and optionally the annotated
// workbook copies.
func runCompare(cmd *cobra.Command, opts compareOptions) error {
	left, err := xlsx.LoadTable(opts.file1, opts.sheet1)
	if err != nil {
		return describeLoadError(err, opts.file1)
	}
	right, err := xlsx.LoadTable(opts.file2, opts.sheet2)
	if err != nil {
		return describeLoadError(err, opts.file2)
	}

	res, err := engine.Compare(left, right, opts.keys)
	if err != nil {
		return err
	}

	report := engine.BuildReport(res, engine.ReportOptions{
		LeftName:  fmt.Sprintf("%s [%s]", opts.file1, opts.sheet1),
		RightName: fmt.Sprintf("%s [%s]", opts.file2, opts.sheet2),
		Now:       time.Now(),
	})
	fmt.Fprint(cmd.OutOrStdout(), report)

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(report), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", opts.output)
	}

	if opts.mark {
		for _, m := range []struct {
			src, sheet string
			side       engine.Side
		}{
			{opts.file1, opts.sheet1, engine.SideLeft},
			{opts.file2, opts.sheet2, engine.SideRight},
		} {
			dst := annotatedPath(m.src)
			if err := xlsx.WriteAnnotated(m.src, m.sheet, engine.Annotate(res, m.side), dst); err != nil {
				return fmt.Errorf("annotate %s: %w", m.src, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "annotated copy written to %s\n", dst)
		}
	}

	return nil
}

// annotatedPath derives "name-annotated.xlsx" next to the input file.
func annotatedPath(src string) string {
	base := strings.TrimSuffix(src, filepath.Ext(src))
	return base + "-annotated.xlsx"
}

// describeLoadError adds a sheet listing to sheet-not-found errors so
// the user can correct --sheet1/--sheet2 without opening the file.
func describeLoadError(err error, path string) error {
	if !errors.Is(err, xlsx.ErrSheetNotFound) {
		return err
	}
	infos, infoErr := xlsx.Info(path)
	if infoErr != nil {
		return err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return fmt.Errorf("%w (available sheets: %s)", err, strings.Join(names, ", "))
}
