package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/tabflow-ai/tabflow/internal/budget"
	"github.com/tabflow-ai/tabflow/internal/linediff"
	"github.com/tabflow-ai/tabflow/internal/tokenizer"
)

// Hunk is one contiguous change within a diff block. StartLine is
// 1-based and absolute in the document, as it appears in the header.
type Hunk struct {
	StartLine int
	OldLines  []string
	NewLines  []string
}

// DiffBlock is the formatted diff of a single edit entry.
type DiffBlock struct {
	Path  string
	Hunks []Hunk
}

func allBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// ComputeDiffBlock reduces an edit entry to its smallest contiguous
// hunks by diffing the affected base lines against the replacement
// lines. Hunks whose old and new content are both blank are dropped;
// a block with no hunks left is reported as ok=false.
func ComputeDiffBlock(e Entry, useRelativePaths bool) (DiffBlock, bool) {
	if e.Kind != KindEdit {
		return DiffBlock{}, false
	}
	old := e.oldLines()
	changes := linediff.Changes(old, e.Edit.NewLines)

	var hunks []Hunk
	for _, ch := range changes {
		h := Hunk{
			StartLine: e.Edit.StartLine + ch.Original.Start + 1,
			OldLines:  old[ch.Original.Start:ch.Original.End],
			NewLines:  e.Edit.NewLines[ch.Modified.Start:ch.Modified.End],
		}
		if allBlank(h.OldLines) && allBlank(h.NewLines) {
			continue
		}
		hunks = append(hunks, h)
	}
	if len(hunks) == 0 {
		return DiffBlock{}, false
	}
	return DiffBlock{Path: e.displayPath(useRelativePaths), Hunks: hunks}, true
}

// Format renders the block as a minimal unified diff.
func (b DiffBlock) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", b.Path, b.Path)
	for _, h := range b.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.StartLine, len(h.OldLines), h.StartLine, len(h.NewLines))
		for _, l := range h.OldLines {
			sb.WriteString("-" + l + "\n")
		}
		for _, l := range h.NewLines {
			sb.WriteString("+" + l + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BuildDiffHistory walks history newest to oldest and collects
// formatted diff blocks, drawing from the assembly's budget under an
// entry cap. Cancellation is checked between iterations so a long log
// can be abandoned mid-walk; a cancelled walk yields no section.
//
// View entries are skipped; edit entries for documents outside
// docsInPrompt are skipped when onlyForDocsInPrompt is set. Collection
// stops at the first diff that does not fit the remaining budget — it
// is dropped, and no older (possibly cheaper) entry is tried in its
// place. The collected diffs are restored to chronological order
// before joining.
func BuildDiffHistory(ctx context.Context, entries []Entry, docsInPrompt map[string]bool, b *budget.Budget, maxEntries int, onlyForDocsInPrompt, useRelativePaths bool, cost tokenizer.CostFunc) string {
	var collected []string

	for i := len(entries) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return ""
		}
		if maxEntries > 0 && len(collected) >= maxEntries {
			break
		}
		e := entries[i]
		switch e.Kind {
		case KindView:
			continue
		case KindEdit:
			// handled below
		default:
			panic(fmt.Sprintf("history: unknown entry kind %v", e.Kind))
		}
		if onlyForDocsInPrompt && !docsInPrompt[e.DocID] {
			continue
		}
		block, ok := ComputeDiffBlock(e, useRelativePaths)
		if !ok {
			continue
		}
		text := block.Format()
		if err := b.Consume(cost(text)); err != nil {
			break
		}
		collected = append(collected, text)
	}

	// Restore chronological order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return strings.Join(collected, "\n\n")
}
