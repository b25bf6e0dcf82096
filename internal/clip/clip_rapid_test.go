package clip

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/tabflow-ai/tabflow/internal/budget"
)

// Property: when the expansion succeeds (non-negative budget left),
// the priced cost of every kept page never exceeds the supplied
// budget, and the snapped must-keep range is always covered.
func TestExpandNeverExceedsBudget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lineCount := rapid.IntRange(1, 200).Draw(t, "lineCount")
		lines := make([]string, lineCount)
		for i := range lines {
			lines[i] = strings.Repeat("x", rapid.IntRange(0, 30).Draw(t, "width"))
		}
		pageSize := rapid.IntRange(1, 50).Draw(t, "pageSize")
		budgetTokens := rapid.IntRange(0, 500).Draw(t, "budget")
		start := rapid.IntRange(0, lineCount-1).Draw(t, "start")
		end := rapid.IntRange(start, lineCount).Draw(t, "end")
		prioritize := rapid.Bool().Draw(t, "prioritize")

		cost := func(s string) int { return (len(s) + 3) / 4 }
		pr := ExpandRangeToPageRange(lines, LineRange{start, end}, pageSize, budgetTokens, cost, prioritize)

		if pr.BudgetLeft < 0 {
			return // nothing fits; no coverage guarantee applies
		}

		total := 0
		for p := pr.FirstPage; p <= pr.LastPage; p++ {
			total += cost(pageText(lines, p, pageSize))
		}
		if total > budgetTokens {
			t.Fatalf("kept pages cost %d > budget %d", total, budgetTokens)
		}

		// The snapped must-keep pages are inside the kept range.
		wantFirst := start / pageSize
		lastLine := end - 1
		if lastLine < start {
			lastLine = start
		}
		wantLast := lastLine / pageSize
		if pr.FirstPage > wantFirst || pr.LastPage < wantLast {
			t.Fatalf("kept pages [%d,%d] do not cover must-keep pages [%d,%d]",
				pr.FirstPage, pr.LastPage, wantFirst, wantLast)
		}
	})
}

// Property: recent-doc selection never spends more than its budget,
// and the output order is chronological regardless of which documents
// were dropped.
func TestSelectRecentDocsBudgetProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		docCount := rapid.IntRange(0, 6).Draw(t, "docCount")
		docs := make([]RecentDoc, docCount)
		order := make(map[string]int)
		for i := range docs {
			n := rapid.IntRange(0, 40).Draw(t, "docLines")
			lines := make([]string, n)
			for j := range lines {
				lines[j] = strings.Repeat("y", rapid.IntRange(0, 10).Draw(t, "w"))
			}
			id := string(rune('a' + i))
			docs[i] = RecentDoc{ID: id, Path: id + ".go", Lines: lines}
			order[id] = i
		}
		budgetTokens := rapid.IntRange(0, 100).Draw(t, "budget")
		pageSize := rapid.IntRange(1, 10).Draw(t, "pageSize")
		cost := func(s string) int { return (len(s) + 3) / 4 }

		snips, included := SelectRecentDocs(docs, budget.New(budgetTokens), pageSize, cost)

		total := 0
		for _, sn := range snips {
			if !included[sn.DocID] {
				t.Fatalf("snippet for %q not in included set", sn.DocID)
			}
			total += cost(strings.Join(sn.Lines, "\n") + "\n")
		}
		if total > budgetTokens {
			t.Fatalf("snippets cost %d > budget %d", total, budgetTokens)
		}
		// Chronological: newest-first input order reversed.
		for i := 1; i < len(snips); i++ {
			if order[snips[i].DocID] > order[snips[i-1].DocID] {
				t.Fatalf("snippets out of chronological order: %q before %q",
					snips[i-1].DocID, snips[i].DocID)
			}
		}
	})
}
