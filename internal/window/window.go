// Package window implements the constant-window protocol: extracting a
// fixed-length line window around the cursor, remapping the cursor
// between two divergent versions of a document, and reconstructing
// absolute document edits from a model's full-window rewrite.
//
// Everything here is pure per-request computation; nothing persists
// between calls.
package window

import (
	"math"
	"strings"
)

// Window is a contiguous run of document lines starting at StartLine.
// Its length is constant except at document boundaries, where it is
// clipped, never padded.
type Window struct {
	StartLine int
	Lines     []string
}

// Extract returns the lines [max(0, cursor-above), min(len, cursor+below+1))
// around a 0-based cursor line.
func Extract(lines []string, cursor, above, below int) Window {
	start := cursor - above
	if start < 0 {
		start = 0
	}
	end := cursor + below + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}
	return Window{StartLine: start, Lines: lines[start:end]}
}

// Text joins the window lines back into a block.
func (w Window) Text() string { return strings.Join(w.Lines, "\n") }

// RemapCursor maps a cursor line in the current version of a document
// back to the original version. The mapping scans for the first and
// last divergent lines and applies a proportional rule inside the
// divergent region; no real alignment is computed for interior lines.
// That approximation is fine here because only a window center is
// needed, not exact per-line correspondence.
func RemapCursor(originalLines, currentLines []string, cursor int) int {
	clampToOriginal := func(c int) int {
		if c < 0 {
			return 0
		}
		if max := len(originalLines) - 1; c > max {
			if max < 0 {
				return 0
			}
			return max
		}
		return c
	}

	if equalLines(originalLines, currentLines) {
		return clampToOriginal(cursor)
	}

	// First differing line from the top.
	firstDiff := 0
	for firstDiff < len(originalLines) && firstDiff < len(currentLines) &&
		originalLines[firstDiff] == currentLines[firstDiff] {
		firstDiff++
	}

	// Last differing pair from the bottom, bounded below by firstDiff.
	origEnd := len(originalLines) - 1
	currEnd := len(currentLines) - 1
	for origEnd >= firstDiff && currEnd >= firstDiff &&
		originalLines[origEnd] == currentLines[currEnd] {
		origEnd--
		currEnd--
	}

	switch {
	case cursor < firstDiff:
		return clampToOriginal(cursor)
	case cursor <= currEnd:
		origDiffLen := origEnd - firstDiff + 1
		currDiffLen := currEnd - firstDiff + 1
		if origDiffLen <= 0 || currDiffLen <= 0 {
			// Pure insertion or deletion: collapse to the divergence start.
			return clampToOriginal(firstDiff)
		}
		mapped := firstDiff + int(math.Round(float64(cursor-firstDiff)*float64(origDiffLen)/float64(currDiffLen)))
		if mapped < firstDiff {
			mapped = firstDiff
		}
		if mapped > origEnd {
			mapped = origEnd
		}
		return clampToOriginal(mapped)
	default:
		// Past the divergent region: shift by the net line delta.
		return clampToOriginal(cursor - (currEnd - origEnd))
	}
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
