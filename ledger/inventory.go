/*
inventory.go - Inventory aggregation with weighted-average costing

PURPOSE:
  Folds purchase and sale events into per-(category, subcategory) stock
  positions. This is the central calculation that answers "what is on hand
  and what did it cost?"

KEY PROPERTIES:
  - Pure: no side effects, re-runnable any number of times over the same
    event set with identical results (including output order).
  - Weighted average: AvgCostPerKg = sum(qty*rate) / sum(qty) over ALL
    purchases in the window, not the latest rate.
  - Display order: the primary category "chicken" sorts first, remaining
    categories lexicographic; subcategories keep first-seen order within
    their category (that order carries no meaning).

WINDOW MODES:
  Callers choose the window by choosing which events to pass in:
  - day-only: events of one business date (summary headline figures)
  - cumulative-to-date: all events up to a date (remaining stock, cost basis)
  Both modes are exposed on SummaryCompiler (summary.go).

SEE ALSO:
  - guard.go: Uses cumulative positions to reject oversells
  - summary.go: Runs both window modes for the daily report
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PrimaryCategory always sorts first in position listings.
const PrimaryCategory = "chicken"

// =============================================================================
// POSITION AGGREGATION
// =============================================================================

type positionAccum struct {
	key         PositionKey
	firstSeen   int // insertion order within the event stream
	purchasedKg decimal.Decimal
	soldKg      decimal.Decimal
	costSum     decimal.Decimal // sum of qty*rate over purchases
}

// AggregatePositions folds stock-movement events into one InventoryPosition
// per distinct (category, subcategory) observed. Non-stock events (payments)
// are ignored. Input order only influences subcategory display order.
func AggregatePositions(events []Event) []InventoryPosition {
	accums := make(map[PositionKey]*positionAccum)
	var order []PositionKey

	for _, e := range events {
		if !e.IsStockMovement() {
			continue
		}
		k := e.PositionKey()
		acc, ok := accums[k]
		if !ok {
			acc = &positionAccum{
				key:         k,
				firstSeen:   len(order),
				purchasedKg: decimal.Zero,
				soldKg:      decimal.Zero,
				costSum:     decimal.Zero,
			}
			accums[k] = acc
			order = append(order, k)
		}

		switch e.Kind {
		case KindPurchase:
			acc.purchasedKg = acc.purchasedKg.Add(e.QuantityKg)
			acc.costSum = acc.costSum.Add(e.QuantityKg.Mul(e.RatePerKg))
		case KindRetailSale, KindHotelSale:
			acc.soldKg = acc.soldKg.Add(e.QuantityKg)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := order[i].Category, order[j].Category
		if ci != cj {
			return categoryRank(ci) < categoryRank(cj) ||
				(categoryRank(ci) == categoryRank(cj) && ci < cj)
		}
		return accums[order[i]].firstSeen < accums[order[j]].firstSeen
	})

	positions := make([]InventoryPosition, 0, len(order))
	for _, k := range order {
		positions = append(positions, accums[k].position())
	}
	return positions
}

// PositionFor folds the events of a single (category, subcategory). Events
// outside the partition are skipped, so callers may pass an unfiltered slice.
func PositionFor(events []Event, category, subcategory string) InventoryPosition {
	key := PositionKey{Category: category, Subcategory: subcategory}
	acc := positionAccum{
		key:         key,
		purchasedKg: decimal.Zero,
		soldKg:      decimal.Zero,
		costSum:     decimal.Zero,
	}
	for _, e := range events {
		if !e.IsStockMovement() || e.PositionKey() != key {
			continue
		}
		switch e.Kind {
		case KindPurchase:
			acc.purchasedKg = acc.purchasedKg.Add(e.QuantityKg)
			acc.costSum = acc.costSum.Add(e.QuantityKg.Mul(e.RatePerKg))
		case KindRetailSale, KindHotelSale:
			acc.soldKg = acc.soldKg.Add(e.QuantityKg)
		}
	}
	return acc.position()
}

func (a *positionAccum) position() InventoryPosition {
	avg := decimal.Zero
	if a.purchasedKg.IsPositive() {
		avg = a.costSum.Div(a.purchasedKg)
	}
	return InventoryPosition{
		Category:     a.key.Category,
		Subcategory:  a.key.Subcategory,
		PurchasedKg:  a.purchasedKg,
		SoldKg:       a.soldKg,
		RemainingKg:  a.purchasedKg.Sub(a.soldKg),
		AvgCostPerKg: avg,
	}
}

// categoryRank pins the primary category ahead of the lexicographic rest.
func categoryRank(category string) int {
	if category == PrimaryCategory {
		return 0
	}
	return 1
}
