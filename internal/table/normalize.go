package table

// normalize.go fixes the single equivalence policy used everywhere a cell
// value is compared: key matching and per-cell diffing both go through
// Normalize, so the two can never disagree about what "equal" means.
//
// The policy:
//   - leading/trailing whitespace is ignored
//   - an empty string, a whitespace-only cell, and a missing cell are all
//     the same (the canonical form is "")
//   - values that parse as numbers are canonicalized through float64, so
//     "1", "1.0" and "1.00" are equal, as are "0.5" and ".5"
//   - everything else compares byte-for-byte, case-sensitively

import (
	"strconv"
	"strings"
)

// Normalize returns the canonical comparison form of a cell value.
func Normalize(v Value) string {
	if v.Empty {
		return ""
	}
	s := strings.TrimSpace(v.Raw)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return s
}

// Equal reports whether two cell values are equal under the
// normalization policy.
func Equal(a, b Value) bool {
	return Normalize(a) == Normalize(b)
}

// Display returns the value as shown in reports and annotations:
// the trimmed raw text, or "<empty>" for blank/missing cells.
func Display(v Value) string {
	if v.Empty {
		return "<empty>"
	}
	s := strings.TrimSpace(v.Raw)
	if s == "" {
		return "<empty>"
	}
	return s
}
