package prompt

import (
	"fmt"
	"strings"

	"github.com/tabflow-ai/tabflow/internal/window"
)

// Strategy names a prompt rendering flavor. Each model family gets its
// own pure formatting function so new protocols are a table entry, not
// a refactor.
type Strategy string

const (
	// StrategyTagged renders tag-delimited context blocks and expects
	// an intent-tagged response.
	StrategyTagged Strategy = "tagged"
	// StrategyFixedWindow renders the constant-window protocol with
	// original/current/updated file sections and expects a full-window
	// rewrite.
	StrategyFixedWindow Strategy = "fixed-window"
)

// RenderFunc renders assembled pieces to the request payload text.
type RenderFunc func(Pieces) string

var strategies = map[Strategy]RenderFunc{
	StrategyTagged:      renderTagged,
	StrategyFixedWindow: renderFixedWindow,
}

// Render dispatches to the named strategy.
func Render(s Strategy, p Pieces) (string, error) {
	fn, ok := strategies[s]
	if !ok {
		return "", fmt.Errorf("prompt: unknown strategy %q", s)
	}
	return fn(p), nil
}

// Block delimiters for the tagged protocol.
const (
	snippetsOpen  = "<|recently_viewed_code_snippets|>"
	snippetsClose = "<|/recently_viewed_code_snippets|>"
	snippetOpen   = "<|recently_viewed_code_snippet|>"
	snippetClose  = "<|/recently_viewed_code_snippet|>"
	diffOpen      = "<|diff_history|>"
	diffClose     = "<|/diff_history|>"
	langOpen      = "<|language_context|>"
	langClose     = "<|/language_context|>"
	currentOpen   = "<|current_file_content|>"
	currentClose  = "<|/current_file_content|>"
	cursorMarker  = "<|cursor|>"
)

func renderTagged(p Pieces) string {
	var sb strings.Builder

	if len(p.RecentSnippets) > 0 {
		sb.WriteString(snippetsOpen + "\n")
		for _, sn := range p.RecentSnippets {
			sb.WriteString(snippetOpen + "\n")
			sb.WriteString("code_snippet_file_path: " + sn.Path + "\n")
			for _, l := range NumberLines(sn.Lines, sn.Range.Start, p.Opts.LineNumbers) {
				sb.WriteString(l + "\n")
			}
			sb.WriteString(snippetClose + "\n")
		}
		sb.WriteString(snippetsClose + "\n\n")
	}

	if p.DiffHistory != "" {
		sb.WriteString(diffOpen + "\n" + p.DiffHistory + "\n" + diffClose + "\n\n")
	}

	if p.LanguageContext != "" {
		sb.WriteString(langOpen + "\n" + p.LanguageContext + "\n" + langClose + "\n\n")
	}

	if p.CurrentLines != nil {
		sb.WriteString(currentOpen + "\n")
		sb.WriteString("current_file_path: " + p.Doc.Path + "\n")
		numbered := NumberLines(p.CurrentLines, p.CurrentRange.Start, p.Opts.LineNumbers)
		for i, l := range numbered {
			if p.CurrentRange.Start+i == p.Doc.Cursor {
				l += cursorMarker
			}
			sb.WriteString(l + "\n")
		}
		sb.WriteString(currentClose + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FileSep is the file separator token of the fixed-window protocol.
// It doubles as the stop sequence for fixed-window completions.
const FileSep = "<|file_sep|>"

// renderFixedWindow emits the original window (cursor remapped across
// the session's edits), the current window, and an open updated/
// section for the model to complete. A blank original baseline means a
// newly created file: the protocol is skipped and the empty string is
// returned so the caller can fall back to another strategy.
func renderFixedWindow(p Pieces) string {
	if strings.TrimSpace(p.Doc.OriginalText) == "" {
		return ""
	}
	origLines := p.Doc.OriginalLines()
	curLines := p.Doc.CurrentLines()

	origCursor := window.RemapCursor(origLines, curLines, p.Doc.Cursor)
	origWin := window.Extract(origLines, origCursor, p.Opts.WindowAbove, p.Opts.WindowBelow)
	curWin := window.Extract(curLines, p.Doc.Cursor, p.Opts.WindowAbove, p.Opts.WindowBelow)

	var sb strings.Builder
	if p.DiffHistory != "" {
		sb.WriteString(p.DiffHistory + "\n")
	}
	sb.WriteString(FileSep + "original/" + p.Doc.Path + "\n")
	sb.WriteString(origWin.Text() + "\n")
	sb.WriteString(FileSep + "current/" + p.Doc.Path + "\n")
	sb.WriteString(curWin.Text() + "\n")
	sb.WriteString(FileSep + "updated/" + p.Doc.Path + "\n")
	return sb.String()
}
