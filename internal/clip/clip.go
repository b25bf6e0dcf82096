// Package clip partitions documents into fixed-size pages and selects
// which pages fit a token budget. Pages are the atomic unit of clip
// expansion: a page is either kept whole or not at all, which keeps
// the kept region stable as the budget shifts between requests.
package clip

import (
	"strings"

	"github.com/tabflow-ai/tabflow/internal/budget"
	"github.com/tabflow-ai/tabflow/internal/tokenizer"
)

// LineRange is a half-open line interval [Start, End).
type LineRange struct {
	Start int
	End   int
}

// Len returns the number of lines covered.
func (r LineRange) Len() int { return r.End - r.Start }

// PageResult is the outcome of page expansion. BudgetLeft is negative
// when even the snapped must-keep pages did not fit; callers detect
// "nothing fits" by that sign, the page range still names the snapped
// must-keep pages in that case.
type PageResult struct {
	FirstPage  int
	LastPage   int // inclusive
	BudgetLeft int
}

func clampRange(r LineRange, n int) LineRange {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.Start > n {
		r.Start = n
	}
	if r.End < r.Start {
		r.End = r.Start
	}
	if r.End > n {
		r.End = n
	}
	return r
}

func pageCount(n, pageSize int) int {
	if n == 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// pageText returns the raw text of the i-th page, trailing newline
// included so page costs sum to roughly the document cost.
func pageText(lines []string, page, pageSize int) string {
	start := page * pageSize
	if start >= len(lines) {
		return ""
	}
	end := start + pageSize
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n") + "\n"
}

// ExpandRangeToPageRange snaps mustKeep to whole pages, charges those
// pages against budgetTokens, then expands outward one page at a time.
//
// Symmetric mode splits the remaining budget in half: the upward half
// and downward half deplete independently, so one direction hitting
// the document edge does not feed the other. Prioritize-above mode
// lets upward growth consume the entire remainder first and gives
// downward growth only what is left.
//
// A page is added only if its full cost fits; partial pages are never
// included.
func ExpandRangeToPageRange(lines []string, mustKeep LineRange, pageSize, budgetTokens int, cost tokenizer.CostFunc, prioritizeAbove bool) PageResult {
	if pageSize <= 0 {
		pageSize = 1
	}
	mustKeep = clampRange(mustKeep, len(lines))
	pages := pageCount(len(lines), pageSize)

	firstPage := mustKeep.Start / pageSize
	lastLine := mustKeep.End - 1
	if lastLine < mustKeep.Start {
		lastLine = mustKeep.Start
	}
	lastPage := lastLine / pageSize
	if firstPage > pages-1 {
		firstPage = pages - 1
	}
	if lastPage > pages-1 {
		lastPage = pages - 1
	}

	remaining := budgetTokens
	for p := firstPage; p <= lastPage; p++ {
		remaining -= cost(pageText(lines, p, pageSize))
	}
	if remaining < 0 {
		return PageResult{FirstPage: firstPage, LastPage: lastPage, BudgetLeft: remaining}
	}

	if prioritizeAbove {
		for firstPage > 0 {
			c := cost(pageText(lines, firstPage-1, pageSize))
			if c > remaining {
				break
			}
			remaining -= c
			firstPage--
		}
		for lastPage < pages-1 {
			c := cost(pageText(lines, lastPage+1, pageSize))
			if c > remaining {
				break
			}
			remaining -= c
			lastPage++
		}
		return PageResult{FirstPage: firstPage, LastPage: lastPage, BudgetLeft: remaining}
	}

	up := remaining / 2
	down := remaining - up
	for firstPage > 0 {
		c := cost(pageText(lines, firstPage-1, pageSize))
		if c > up {
			break
		}
		up -= c
		firstPage--
	}
	for lastPage < pages-1 {
		c := cost(pageText(lines, lastPage+1, pageSize))
		if c > down {
			break
		}
		down -= c
		lastPage++
	}
	return PageResult{FirstPage: firstPage, LastPage: lastPage, BudgetLeft: up + down}
}

// AbsoluteRange converts a page result back to document line
// coordinates, clipped to the document length.
func (pr PageResult) AbsoluteRange(lineCount, pageSize int) LineRange {
	if pageSize <= 0 {
		pageSize = 1
	}
	start := pr.FirstPage * pageSize
	end := (pr.LastPage + 1) * pageSize
	if end > lineCount {
		end = lineCount
	}
	if start > end {
		start = end
	}
	return LineRange{Start: start, End: end}
}

// ClipPreservingRange clips the current file around a must-keep range,
// drawing from the assembly's budget. It first prices the must-keep
// lines alone: if they alone exceed what is left the clip fails with
// ErrOutOfBudget and the caller omits the section. Otherwise the range
// is snapped to pages and expanded, and the cost of the kept pages is
// consumed from the budget.
func ClipPreservingRange(lines []string, mustKeep LineRange, pageSize int, b *budget.Budget, cost tokenizer.CostFunc, prioritizeAbove bool) (LineRange, error) {
	mustKeep = clampRange(mustKeep, len(lines))
	keepText := strings.Join(lines[mustKeep.Start:mustKeep.End], "\n")
	if !b.Fits(cost(keepText)) {
		return LineRange{}, budget.ErrOutOfBudget
	}
	pr := ExpandRangeToPageRange(lines, mustKeep, pageSize, b.Remaining(), cost, prioritizeAbove)
	if pr.BudgetLeft < 0 {
		// The raw range fit but its whole-page snapping does not.
		return LineRange{}, budget.ErrOutOfBudget
	}
	if err := b.Consume(b.Remaining() - pr.BudgetLeft); err != nil {
		return LineRange{}, err
	}
	return pr.AbsoluteRange(len(lines), pageSize), nil
}
