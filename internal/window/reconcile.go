package window

import (
	"strings"

	"github.com/tabflow-ai/tabflow/internal/linediff"
)

// Edit is an absolute-document line replacement: lines
// [StartLine, EndLine) are replaced by Lines.
type Edit struct {
	StartLine int
	EndLine   int
	Lines     []string
}

// Result is the outcome of reconciling a model response. Done reports
// that the terminal no-further-suggestions marker was reached; it is
// false only when the protocol was skipped entirely (blank baseline).
type Result struct {
	Edits []Edit
	Done  bool
}

// Reconcile reconstructs absolute document edits from a model's
// full-window rewrite. The exact window sent is recomputed from the
// current document and cursor, diffed against the model output, and
// each change is translated to document coordinates by adding the
// window start. The replacement lines are sliced out of the model's
// own output by the change's modified range.
//
// A blank original baseline (newly created file) skips the protocol
// and returns an empty result; the caller falls back to another
// adapter rather than letting this one guess.
func Reconcile(originalText, currentText string, cursor, above, below int, modelOutput string) Result {
	if strings.TrimSpace(originalText) == "" {
		return Result{}
	}

	currentLines := linediff.SplitLines(currentText)
	sent := Extract(currentLines, cursor, above, below)
	outLines := linediff.SplitLines(modelOutput)

	var edits []Edit
	for _, ch := range linediff.Changes(sent.Lines, outLines) {
		edits = append(edits, Edit{
			StartLine: sent.StartLine + ch.Original.Start,
			EndLine:   sent.StartLine + ch.Original.End,
			Lines:     outLines[ch.Modified.Start:ch.Modified.End],
		})
	}
	// The terminal marker is emitted even when no changes were found.
	return Result{Edits: edits, Done: true}
}

const (
	conflictOpenMarker  = "<<<<<<<"
	conflictCloseMarker = ">>>>>>>"
)

// FindMergeConflictMarkersRange scans lines starting at from for a
// merge conflict block. It returns the half-open line range from the
// opening marker through the closing marker line, or ok=false when no
// closing marker appears within maxSpan lines of the opening one.
func FindMergeConflictMarkersRange(lines []string, from, maxSpan int) (linediff.Range, bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], conflictOpenMarker) {
			continue
		}
		limit := i + maxSpan
		if maxSpan <= 0 || limit > len(lines) {
			limit = len(lines)
		}
		for j := i + 1; j < limit; j++ {
			if strings.HasPrefix(lines[j], conflictCloseMarker) {
				return linediff.Range{Start: i, End: j + 1}, true
			}
		}
		return linediff.Range{}, false
	}
	return linediff.Range{}, false
}
