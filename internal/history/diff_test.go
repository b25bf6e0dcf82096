package history

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/tabflow-ai/tabflow/internal/budget"
)

func charCost(s string) int { return len(s) }

func editEntry(doc, path string, base []string, start, end int, newLines []string) Entry {
	return NewEdit(doc, path, strings.Join(base, "\n"), LineEdit{
		StartLine: start,
		EndLine:   end,
		NewLines:  newLines,
	}, time.Now())
}

func TestComputeDiffBlockReducesToSmallestHunk(t *testing.T) {
	base := []string{"a", "b", "c", "d"}
	// Replace lines [0,4) but only line 2 actually changes.
	e := editEntry("d1", "x.go", base, 0, 4, []string{"a", "b", "C", "d"})
	block, ok := ComputeDiffBlock(e, true)
	if !ok {
		t.Fatal("expected a diff block")
	}
	if len(block.Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(block.Hunks))
	}
	h := block.Hunks[0]
	if h.StartLine != 3 { // 1-based: line index 2
		t.Errorf("hunk start = %d, want 3", h.StartLine)
	}
	if len(h.OldLines) != 1 || h.OldLines[0] != "c" {
		t.Errorf("old lines = %v, want [c]", h.OldLines)
	}
	if len(h.NewLines) != 1 || h.NewLines[0] != "C" {
		t.Errorf("new lines = %v, want [C]", h.NewLines)
	}
}

func TestComputeDiffBlockDropsBlankHunks(t *testing.T) {
	base := []string{"a", "", "b"}
	// Whitespace-only change: blank line becomes spaces.
	e := editEntry("d1", "x.go", base, 0, 3, []string{"a", "   ", "b"})
	if _, ok := ComputeDiffBlock(e, true); ok {
		t.Fatal("whitespace-only diff should produce no block")
	}
}

func TestComputeDiffBlockViewEntry(t *testing.T) {
	v := NewView("d1", "x.go", "a\nb", nil, time.Now())
	if _, ok := ComputeDiffBlock(v, true); ok {
		t.Fatal("view entries have no diff block")
	}
}

var hunkHeaderRE = regexp.MustCompile(`@@ -(\d+),(\d+) \+(\d+),(\d+) @@`)

func TestFormatRoundTripsHunkHeader(t *testing.T) {
	base := []string{"one", "two", "three"}
	e := editEntry("d1", "src/x.go", base, 0, 3, []string{"one", "TWO", "2.5", "three"})
	block, ok := ComputeDiffBlock(e, true)
	if !ok {
		t.Fatal("expected a diff block")
	}
	text := block.Format()
	if !strings.HasPrefix(text, "--- src/x.go\n+++ src/x.go\n") {
		t.Fatalf("missing path headers:\n%s", text)
	}
	m := hunkHeaderRE.FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("no hunk header in:\n%s", text)
	}
	start, _ := strconv.Atoi(m[1])
	oldCount, _ := strconv.Atoi(m[2])
	newCount, _ := strconv.Atoi(m[4])
	h := block.Hunks[0]
	if start != h.StartLine || oldCount != len(h.OldLines) || newCount != len(h.NewLines) {
		t.Fatalf("parsed (%d,%d,%d) != hunk (%d,%d,%d)",
			start, oldCount, newCount, h.StartLine, len(h.OldLines), len(h.NewLines))
	}
}

func TestBuildDiffHistorySkipsViewsAndFilters(t *testing.T) {
	entries := []Entry{
		editEntry("in", "in.go", []string{"a"}, 0, 1, []string{"A"}),
		NewView("in", "in.go", "whatever", nil, time.Now()),
		editEntry("out", "out.go", []string{"b"}, 0, 1, []string{"B"}),
	}
	docs := map[string]bool{"in": true}
	text := BuildDiffHistory(context.Background(), entries, docs, budget.New(10000), 0, true, true, charCost)
	if !strings.Contains(text, "in.go") {
		t.Error("in-prompt doc diff missing")
	}
	if strings.Contains(text, "out.go") {
		t.Error("out-of-prompt doc diff should be filtered")
	}
}

func TestBuildDiffHistoryChronologicalOrder(t *testing.T) {
	entries := []Entry{
		editEntry("d", "first.go", []string{"a"}, 0, 1, []string{"A"}),
		editEntry("d", "second.go", []string{"b"}, 0, 1, []string{"B"}),
	}
	text := BuildDiffHistory(context.Background(), entries, nil, budget.New(10000), 0, false, true, charCost)
	if strings.Index(text, "first.go") > strings.Index(text, "second.go") {
		t.Fatalf("diffs out of chronological order:\n%s", text)
	}
}

func TestBuildDiffHistoryBudgetStopsAtFirstOverflow(t *testing.T) {
	// Oldest entry is cheap, middle is huge, newest is cheap. The walk
	// is newest-first: after taking the newest, the huge middle entry
	// overflows and iteration stops — the cheap oldest entry must NOT
	// be collected in its place.
	big := make([]string, 40)
	bigNew := make([]string, 40)
	for i := range big {
		big[i] = strings.Repeat("x", 20)
		bigNew[i] = strings.Repeat("y", 20)
	}
	entries := []Entry{
		editEntry("d", "cheap-old.go", []string{"a"}, 0, 1, []string{"A"}),
		editEntry("d", "huge.go", big, 0, 40, bigNew),
		editEntry("d", "cheap-new.go", []string{"c"}, 0, 1, []string{"C"}),
	}
	text := BuildDiffHistory(context.Background(), entries, nil, budget.New(100), 0, false, true, charCost)
	if !strings.Contains(text, "cheap-new.go") {
		t.Error("newest cheap diff should be collected")
	}
	if strings.Contains(text, "huge.go") {
		t.Error("over-budget diff must be dropped")
	}
	if strings.Contains(text, "cheap-old.go") {
		t.Error("collection must stop at the overflow, not skip ahead to older entries")
	}
}

func TestBuildDiffHistoryMaxEntries(t *testing.T) {
	var entries []Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, editEntry("d", "f.go", []string{"a"}, 0, 1, []string{"A" + strconv.Itoa(i)}))
	}
	text := BuildDiffHistory(context.Background(), entries, nil, budget.New(100000), 2, false, true, charCost)
	if got := strings.Count(text, "--- "); got != 2 {
		t.Fatalf("collected %d diffs, want 2", got)
	}
	// The two newest entries survive.
	if !strings.Contains(text, "A4") || !strings.Contains(text, "A3") {
		t.Fatalf("expected the two newest diffs:\n%s", text)
	}
}

func TestBuildDiffHistoryCancelledContext(t *testing.T) {
	var entries []Entry
	for i := 0; i < 50; i++ {
		entries = append(entries, editEntry("d", "f.go", []string{"a"}, 0, 1, []string{"A" + strconv.Itoa(i)}))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if text := BuildDiffHistory(ctx, entries, nil, budget.New(100000), 0, false, true, charCost); text != "" {
		t.Fatalf("cancelled walk must be abandoned, got %q", text)
	}
}
