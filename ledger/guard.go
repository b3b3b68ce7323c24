/*
guard.go - Stock-availability guard

PURPOSE:
  Enforces the non-negative-remaining invariant at the moment a sale is
  committed: soldKg may never exceed purchasedKg for any (category,
  subcategory).

HOW:
  Before appending a RetailSale or HotelSale line, the guard recomputes the
  cumulative position for the sale's partition from ALL committed events
  (candidate excluded). If the candidate quantity exceeds RemainingKg the
  write fails with InsufficientStockError carrying the available quantity,
  and nothing is persisted.

SERIALIZATION:
  The check-then-append sequence is serialized per (category, subcategory)
  with a keyed mutex, so two concurrent sales cannot each observe sufficient
  stock and jointly oversell. Purchases only increase stock and need no
  serialization against the guard.

SEE ALSO:
  - inventory.go: PositionFor, the fold behind the check
  - errors.go: InsufficientStockError
*/
package ledger

import "context"

// StockGuard validates and commits sale events against available stock.
type StockGuard struct {
	store EventStore
	locks *lockTable
}

func NewStockGuard(store EventStore) *StockGuard {
	return &StockGuard{store: store, locks: newLockTable()}
}

// RecordSale commits a retail sale or hotel sale line. On success it returns
// the stored event (with Seq assigned); on an oversell it returns
// InsufficientStockError and leaves the log untouched.
func (g *StockGuard) RecordSale(ctx context.Context, e Event) (Event, error) {
	if !e.IsSale() {
		return Event{}, &ValidationError{Field: "kind", Reason: "expected retail or hotel sale"}
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}

	unlock := g.locks.acquire(e.Category + "|" + e.Subcategory)
	defer unlock()

	// Position as of now: everything committed, candidate excluded.
	committed, err := g.store.Query(ctx, EventFilter{
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Kinds:       StockKinds(),
	})
	if err != nil {
		return Event{}, err
	}

	pos := PositionFor(committed, e.Category, e.Subcategory)
	if e.QuantityKg.GreaterThan(pos.RemainingKg) {
		return Event{}, &InsufficientStockError{
			Category:    e.Category,
			Subcategory: e.Subcategory,
			RequestedKg: e.QuantityKg,
			AvailableKg: pos.RemainingKg,
		}
	}

	return g.store.Append(ctx, e)
}

// Available returns the current remaining stock for a partition. Advisory:
// a subsequent RecordSale still re-checks under the partition lock.
func (g *StockGuard) Available(ctx context.Context, category, subcategory string) (InventoryPosition, error) {
	events, err := g.store.Query(ctx, EventFilter{
		Category:    category,
		Subcategory: subcategory,
		Kinds:       StockKinds(),
	})
	if err != nil {
		return InventoryPosition{}, err
	}
	return PositionFor(events, category, subcategory), nil
}
