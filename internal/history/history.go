// Package history models the per-workspace log of edit and view events
// and assembles the diff-history section of a prompt from it.
package history

import (
	"fmt"
	"time"

	"github.com/tabflow-ai/tabflow/internal/clip"
	"github.com/tabflow-ai/tabflow/internal/linediff"
)

// Kind discriminates the two history entry variants.
type Kind int

const (
	// KindEdit records a document edit against a base text.
	KindEdit Kind = iota
	// KindView records a viewport change over a document.
	KindView
)

func (k Kind) String() string {
	switch k {
	case KindEdit:
		return "edit"
	case KindView:
		return "view"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// LineEdit is a line-replacement edit: lines [StartLine, EndLine) of
// the base text are replaced by NewLines.
type LineEdit struct {
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	NewLines  []string `json:"new_lines"`
}

// Entry is one recorded event. Entries are appended in occurrence
// order and never mutated; the host bounds how many are retained.
//
// Kind selects which field group is meaningful: BaseText and Edit for
// KindEdit, Content and VisibleRanges for KindView.
type Entry struct {
	Kind    Kind      `json:"kind"`
	DocID   string    `json:"doc_id"`
	Path    string    `json:"path"`     // workspace-relative
	AbsPath string    `json:"abs_path"` // optional absolute path
	Time    time.Time `json:"time"`

	// Edit variant
	BaseText string   `json:"base_text,omitempty"`
	Edit     LineEdit `json:"edit,omitempty"`

	// View variant
	Content       string           `json:"content,omitempty"`
	VisibleRanges []clip.LineRange `json:"visible_ranges,omitempty"`
}

// NewEdit builds an edit entry.
func NewEdit(docID, path, baseText string, edit LineEdit, at time.Time) Entry {
	return Entry{Kind: KindEdit, DocID: docID, Path: path, BaseText: baseText, Edit: edit, Time: at}
}

// NewView builds a view entry.
func NewView(docID, path, content string, visible []clip.LineRange, at time.Time) Entry {
	return Entry{Kind: KindView, DocID: docID, Path: path, Content: content, VisibleRanges: visible, Time: at}
}

// displayPath picks the path used in diff headers.
func (e Entry) displayPath(useRelative bool) string {
	if useRelative || e.AbsPath == "" {
		return e.Path
	}
	return e.AbsPath
}

// oldLines slices the affected line range out of the base text.
func (e Entry) oldLines() []string {
	lines := linediff.SplitLines(e.BaseText)
	start := e.Edit.StartLine
	end := e.Edit.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}
	return lines[start:end]
}
