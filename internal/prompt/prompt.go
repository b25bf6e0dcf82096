// Package prompt assembles the bounded prediction context for a
// next-edit request and renders it to text through per-model-family
// strategies.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/tabflow-ai/tabflow/internal/budget"
	"github.com/tabflow-ai/tabflow/internal/clip"
	"github.com/tabflow-ai/tabflow/internal/history"
	"github.com/tabflow-ai/tabflow/internal/linediff"
	"github.com/tabflow-ai/tabflow/internal/tokenizer"
)

// LineNumberStyle controls how source lines are numbered in rendered
// blocks.
type LineNumberStyle string

const (
	LineNumbersNone         LineNumberStyle = "none"
	LineNumbersWithSpace    LineNumberStyle = "withSpace"
	LineNumbersWithoutSpace LineNumberStyle = "withoutSpace"
)

// NumberLines prefixes lines with 1-based numbers starting at
// startLine (0-based document coordinate).
func NumberLines(lines []string, startLine int, style LineNumberStyle) []string {
	if style == LineNumbersNone || style == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		n := startLine + i + 1
		switch style {
		case LineNumbersWithSpace:
			out[i] = fmt.Sprintf("%d %s", n, l)
		case LineNumbersWithoutSpace:
			out[i] = fmt.Sprintf("%d%s", n, l)
		default:
			out[i] = l
		}
	}
	return out
}

// DocumentState is an immutable snapshot of the document being edited.
type DocumentState struct {
	ID           string
	Path         string // workspace-relative
	OriginalText string // content at session start
	CurrentText  string // content now
	Cursor       int    // 0-based cursor line in the current text
}

// CurrentLines splits the current content into lines.
func (d DocumentState) CurrentLines() []string {
	return linediff.SplitLines(d.CurrentText)
}

// OriginalLines splits the session-start content into lines.
func (d DocumentState) OriginalLines() []string {
	return linediff.SplitLines(d.OriginalText)
}

// Budgets are the per-purpose token allowances of one assembly call.
type Budgets struct {
	CurrentFile     int
	RecentDocs      int
	DiffHistory     int
	LanguageContext int
}

// Options configures one assembly.
type Options struct {
	PageSize              int
	Budgets               Budgets
	MaxDiffEntries        int
	DiffOnlyForDocsInPrompt bool
	UseRelativePaths      bool
	LineNumbers           LineNumberStyle
	PrioritizeAboveCursor bool

	// Fixed-window protocol geometry: lines of context above and below
	// the cursor (a 21-line window is 10/10).
	WindowAbove int
	WindowBelow int
}

// Pieces is the filled prediction context, ready for rendering. Any
// section that failed to fit its budget is simply absent: one bad
// section degrades the prompt, never the request.
type Pieces struct {
	Doc  DocumentState
	Opts Options

	CurrentRange clip.LineRange
	CurrentLines []string // clipped lines, nil when the section was omitted

	RecentSnippets []clip.Snippet
	DiffHistory    string
	LanguageContext string

	// IncludedDocs holds the ids of all documents present in the
	// prompt, the current document included.
	IncludedDocs map[string]bool
}

// Assemble fills Pieces from the document state, the recently viewed
// documents (newest first) and the event history. Each section gets a
// fresh Budget for this call alone; the clipping and selection
// operations consume from it and it is discarded with the call.
func Assemble(ctx context.Context, doc DocumentState, recentDocs []clip.RecentDoc, entries []history.Entry, languageContext string, opts Options, cost tokenizer.CostFunc) Pieces {
	p := Pieces{Doc: doc, Opts: opts, IncludedDocs: map[string]bool{doc.ID: true}}

	curLines := doc.CurrentLines()
	mustKeep := clip.LineRange{Start: doc.Cursor, End: doc.Cursor + 1}
	fileBudget := budget.New(opts.Budgets.CurrentFile)
	r, err := clip.ClipPreservingRange(curLines, mustKeep, opts.PageSize, fileBudget, cost, opts.PrioritizeAboveCursor)
	if err == nil {
		p.CurrentRange = r
		p.CurrentLines = curLines[r.Start:r.End]
	} else if !errors.Is(err, budget.ErrOutOfBudget) {
		// ClipPreservingRange only fails with ErrOutOfBudget today;
		// anything else would be a programming error worth surfacing.
		panic(err)
	}

	snippets, included := clip.SelectRecentDocs(recentDocs, budget.New(opts.Budgets.RecentDocs), opts.PageSize, cost)
	p.RecentSnippets = snippets
	for id := range included {
		p.IncludedDocs[id] = true
	}

	p.DiffHistory = history.BuildDiffHistory(ctx, entries, p.IncludedDocs, budget.New(opts.Budgets.DiffHistory), opts.MaxDiffEntries, opts.DiffOnlyForDocsInPrompt, opts.UseRelativePaths, cost)

	if languageContext != "" && budget.New(opts.Budgets.LanguageContext).Consume(cost(languageContext)) == nil {
		p.LanguageContext = languageContext
	}
	return p
}
