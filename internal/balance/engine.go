// Package balance is the envelope balance consistency engine. Every
// mutation of a transaction or assignment implies an exact adjustment to one
// or two category available balances; the functions here compute those
// adjustments from pre-fetched state and return them as a write set for the
// caller to commit atomically alongside its own document write. The package
// does no I/O and works exclusively in decimal arithmetic, so repeated
// application can never drift by fractions of a cent.
package balance

import (
	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/shopspring/decimal"
)

// Adjustment is one category balance write. Available is the new absolute
// value, not a delta: the caller read the category in the same request and
// commits the write in the same batch.
type Adjustment struct {
	CategoryID string
	Available  decimal.Decimal
}

// Apply appends the adjustment's category update to a ledger batch.
func (a Adjustment) Apply(b ledger.Batch) {
	b.Update(domain.CollectionCategories, a.CategoryID, ledger.Document{
		"available": a.Available.String(),
	})
}

// TransactionCreate returns the adjustment for categorizing a new
// transaction of the given amount. A nil category (uncategorized
// transaction) needs no adjustment.
func TransactionCreate(category *domain.Category, amount decimal.Decimal) []Adjustment {
	if category == nil {
		return nil
	}
	return []Adjustment{{
		CategoryID: category.ID,
		Available:  category.Available.Add(amount),
	}}
}

// TransactionDelete reverses a transaction's contribution to its category.
func TransactionDelete(category *domain.Category, amount decimal.Decimal) []Adjustment {
	if category == nil {
		return nil
	}
	return []Adjustment{{
		CategoryID: category.ID,
		Available:  category.Available.Sub(amount),
	}}
}

// TransactionRecategorize moves a transaction's contribution from the old
// category to the new one. Either side may be nil, in which case that side
// needs no adjustment; both nil is a valid no-op.
func TransactionRecategorize(oldCategory, newCategory *domain.Category, amount decimal.Decimal) []Adjustment {
	var adjustments []Adjustment
	if oldCategory != nil {
		adjustments = append(adjustments, Adjustment{
			CategoryID: oldCategory.ID,
			Available:  oldCategory.Available.Sub(amount),
		})
	}
	if newCategory != nil {
		adjustments = append(adjustments, Adjustment{
			CategoryID: newCategory.ID,
			Available:  newCategory.Available.Add(amount),
		})
	}
	return adjustments
}

// AssignmentCreate funds the target category from unallocated funds: the
// two adjustments mirror each other, so their deltas always sum to zero.
// Zero amounts are rejected upstream by domain.NewAssignment.
func AssignmentCreate(unallocated, target *domain.Category, amount decimal.Decimal) []Adjustment {
	return []Adjustment{
		{CategoryID: unallocated.ID, Available: unallocated.Available.Sub(amount)},
		{CategoryID: target.ID, Available: target.Available.Add(amount)},
	}
}

// AssignmentDelete reverses an assignment's funding move.
func AssignmentDelete(unallocated, target *domain.Category, amount decimal.Decimal) []Adjustment {
	return []Adjustment{
		{CategoryID: unallocated.ID, Available: unallocated.Available.Add(amount)},
		{CategoryID: target.ID, Available: target.Available.Sub(amount)},
	}
}
