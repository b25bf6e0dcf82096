package clip

import (
	"github.com/tabflow-ai/tabflow/internal/budget"
	"github.com/tabflow-ai/tabflow/internal/tokenizer"
)

// RecentDoc is one recently viewed document, newest first in the slice
// handed to SelectRecentDocs. VisibleRanges, when present, mark the
// viewport ranges last seen for the document.
type RecentDoc struct {
	ID            string
	Path          string
	Lines         []string
	VisibleRanges []LineRange
}

// Snippet is the kept portion of one recently viewed document.
type Snippet struct {
	DocID     string
	Path      string
	Range     LineRange
	Lines     []string
	Truncated bool
}

// unionRanges returns the smallest range covering all of rs.
func unionRanges(rs []LineRange, lineCount int) LineRange {
	u := rs[0]
	for _, r := range rs[1:] {
		if r.Start < u.Start {
			u.Start = r.Start
		}
		if r.End > u.End {
			u.End = r.End
		}
	}
	return clampRange(u, lineCount)
}

// SelectRecentDocs picks snippets from recently viewed documents,
// all drawing from the single chained budget. Documents are processed
// newest first and greedily deplete the budget, so older or larger
// documents may be dropped entirely. A document with visible ranges
// keeps their union (page-expanded symmetrically); one without accepts
// whole pages from the top of the file until the budget runs out. A
// dropped document consumes nothing.
//
// Returned snippets are in chronological order (oldest first); the set
// holds the ids of documents actually included.
func SelectRecentDocs(docs []RecentDoc, b *budget.Budget, pageSize int, cost tokenizer.CostFunc) ([]Snippet, map[string]bool) {
	if pageSize <= 0 {
		pageSize = 1
	}
	included := make(map[string]bool)
	var picked []Snippet // newest-processed first

	for _, d := range docs {
		if b.Remaining() <= 0 {
			break
		}
		if len(d.Lines) == 0 {
			continue
		}
		var keep LineRange
		if len(d.VisibleRanges) == 0 {
			// No anchor: greedy whole-page prefix scan.
			pages := pageCount(len(d.Lines), pageSize)
			kept, spent := 0, 0
			r := b.Remaining()
			for p := 0; p < pages; p++ {
				c := cost(pageText(d.Lines, p, pageSize))
				if c > r {
					break
				}
				r -= c
				spent += c
				kept++
			}
			if kept == 0 {
				continue
			}
			if err := b.Consume(spent); err != nil {
				continue
			}
			end := kept * pageSize
			if end > len(d.Lines) {
				end = len(d.Lines)
			}
			keep = LineRange{Start: 0, End: end}
		} else {
			union := unionRanges(d.VisibleRanges, len(d.Lines))
			pr := ExpandRangeToPageRange(d.Lines, union, pageSize, b.Remaining(), cost, false)
			if pr.BudgetLeft < 0 {
				continue
			}
			if err := b.Consume(b.Remaining() - pr.BudgetLeft); err != nil {
				continue
			}
			keep = pr.AbsoluteRange(len(d.Lines), pageSize)
		}

		picked = append(picked, Snippet{
			DocID:     d.ID,
			Path:      d.Path,
			Range:     keep,
			Lines:     d.Lines[keep.Start:keep.End],
			Truncated: keep.Len() < len(d.Lines),
		})
		included[d.ID] = true
	}

	// Restore chronological order before returning.
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked, included
}
