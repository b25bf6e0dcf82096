// Package budget implements the depletable token allowance that every
// clipping and selection operation draws from. A Budget is created per
// assembly call and discarded when the prompt is rendered; it never
// goes negative and never refills.
package budget

import "errors"

// ErrOutOfBudget is returned when an operation cannot fit even its
// mandatory content. Callers omit the section rather than abort the
// whole assembly.
var ErrOutOfBudget = errors.New("out of token budget")

// Budget is a monotonically decreasing token allowance.
type Budget struct {
	remaining int
}

// New returns a budget with the given initial allowance. A negative
// allowance is treated as zero.
func New(allowance int) *Budget {
	if allowance < 0 {
		allowance = 0
	}
	return &Budget{remaining: allowance}
}

// Remaining reports how much allowance is left.
func (b *Budget) Remaining() int { return b.remaining }

// Fits reports whether cost could be consumed without exhausting the budget.
func (b *Budget) Fits(cost int) bool { return cost <= b.remaining }

// Consume subtracts cost from the remaining allowance. On ErrOutOfBudget
// the remaining allowance is left unchanged.
func (b *Budget) Consume(cost int) error {
	if cost < 0 {
		cost = 0
	}
	if cost > b.remaining {
		return ErrOutOfBudget
	}
	b.remaining -= cost
	return nil
}
