package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts compareOptions

	rootCmd := &cobra.Command{
		Use:   "xlsxdiff FILE1 FILE2",
		Short: "Compare two Excel worksheets by composite key",
		Long: `xlsxdiff compares two xlsx worksheets row-by-row and cell-by-cell,
matching rows across the files with one or more key columns. It prints a
text report of rows unique to each file and of every differing cell, and
can write annotated copies of both workbooks with the differences
highlighted.

The exit code is 0 whenever the comparison completes, whether or not
differences were found; it is non-zero only for load or validation
failures.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file1, opts.file2 = args[0], args[1]
			return runCompare(cmd, opts)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringSliceVar(&opts.keys, "keys", nil, "key column names forming the composite key (required)")
	rootCmd.Flags().StringVar(&opts.sheet1, "sheet1", "Sheet1", "worksheet name in FILE1")
	rootCmd.Flags().StringVar(&opts.sheet2, "sheet2", "Sheet1", "worksheet name in FILE2")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to this file as well as stdout")
	rootCmd.Flags().BoolVar(&opts.mark, "mark", false, "also write annotated copies of both workbooks")
	rootCmd.MarkFlagRequired("keys")

	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}
