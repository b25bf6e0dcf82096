// Package linediff wraps the line-level diff primitive the rest of the
// engine treats as an opaque oracle: given two line sequences it
// reports the changed regions as half-open ranges.
package linediff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Range is a half-open line interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of lines covered.
func (r Range) Len() int { return r.End - r.Start }

// Empty reports whether the range covers no lines.
func (r Range) Empty() bool { return r.End <= r.Start }

// Change is one changed region: Original lines were replaced by
// Modified lines. Either side may be empty (pure insertion/deletion).
type Change struct {
	Original Range
	Modified Range
}

// Changes diffs two line sequences and returns the changed regions in
// document order. Equal regions are omitted.
func Changes(a, b []string) []Change {
	m := difflib.NewMatcher(a, b)
	var out []Change
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		out = append(out, Change{
			Original: Range{Start: op.I1, End: op.I2},
			Modified: Range{Start: op.J1, End: op.J2},
		})
	}
	return out
}

// SplitLines splits text into lines without dropping empty ones. The
// empty string yields a single empty line, matching how editors model
// an empty document.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}
