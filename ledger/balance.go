/*
balance.go - Counterparty balance ledger

PURPOSE:
  Computes a vendor's outstanding balance (money the business owes them) as
  a pure fold over that vendor's purchase and payment events, and exposes
  the mutating operations that feed the fold.

THE FOLD:
  balance_n = max(0, balance_{n-1} + delta)
    delta = +purchase.Total for a purchase
    delta = -payment.Amount for a payment
  Events are folded in (business_date, seq) order; Seq breaks same-day ties
  deterministically.

CLAMP AT ZERO:
  A payment exceeding outstanding debt clamps the balance at zero and the
  excess is NOT tracked as credit. This lossy behavior is intentional and
  matches how the business operates; see DESIGN.md.

  Because the clamp is not invertible, deleting any vendor event triggers a
  FULL re-fold from the start of the log, not a point adjustment. Re-folds
  are serialized per vendor.

SEE ALSO:
  - guard.go: The equivalent write-time invariant for stock
  - summary.go: Day-level reporting over the same event log
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PURE FOLD
// =============================================================================

// FoldVendorBalance folds purchase and payment events into an outstanding
// balance, clamping at zero at every step. Events must already be in
// (business_date, seq) order, which is the EventStore.Query contract;
// non-vendor events in the slice are skipped.
func FoldVendorBalance(events []Event) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range events {
		switch e.Kind {
		case KindPurchase:
			balance = balance.Add(e.Total)
		case KindVendorPayment:
			balance = balance.Sub(e.Amount)
		default:
			continue
		}
		if balance.IsNegative() {
			balance = decimal.Zero
		}
	}
	return balance
}

// =============================================================================
// BALANCE LEDGER - Mutating operations over the event store
// =============================================================================

// BalanceLedger records vendor purchases and payments and answers balance
// queries. Each mutating operation returns the new balance synchronously.
type BalanceLedger struct {
	store EventStore
	locks *lockTable
}

func NewBalanceLedger(store EventStore) *BalanceLedger {
	return &BalanceLedger{store: store, locks: newLockTable()}
}

// RecordPurchase validates and appends a purchase event, then returns the
// stored event and the vendor's new balance.
func (l *BalanceLedger) RecordPurchase(ctx context.Context, e Event) (Event, decimal.Decimal, error) {
	if e.Kind != KindPurchase {
		return Event{}, decimal.Zero, &ValidationError{Field: "kind", Reason: "expected purchase"}
	}
	return l.recordVendorEvent(ctx, e)
}

// RecordPayment validates and appends a vendor payment event, then returns
// the stored event and the vendor's new balance.
func (l *BalanceLedger) RecordPayment(ctx context.Context, e Event) (Event, decimal.Decimal, error) {
	if e.Kind != KindVendorPayment {
		return Event{}, decimal.Zero, &ValidationError{Field: "kind", Reason: "expected vendor payment"}
	}
	return l.recordVendorEvent(ctx, e)
}

func (l *BalanceLedger) recordVendorEvent(ctx context.Context, e Event) (Event, decimal.Decimal, error) {
	if err := e.Validate(); err != nil {
		return Event{}, decimal.Zero, err
	}

	unlock := l.locks.acquire(string(e.VendorID))
	defer unlock()

	stored, err := l.store.Append(ctx, e)
	if err != nil {
		return Event{}, decimal.Zero, err
	}
	balance, err := l.foldLocked(ctx, e.VendorID)
	if err != nil {
		return Event{}, decimal.Zero, err
	}
	return stored, balance, nil
}

// DeleteEvent removes any event from the log. For vendor events it re-folds
// the vendor's balance from scratch (the clamp-at-zero step makes point
// adjustments unsound) and returns the new balance; for other events the
// returned balance is zero, since inventory aggregates are computed at read
// time and need no eager recomputation.
func (l *BalanceLedger) DeleteEvent(ctx context.Context, id EventID) (decimal.Decimal, error) {
	e, err := l.store.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	if !e.TouchesVendor() {
		return decimal.Zero, l.store.Delete(ctx, id)
	}

	unlock := l.locks.acquire(string(e.VendorID))
	defer unlock()

	if err := l.store.Delete(ctx, id); err != nil {
		return decimal.Zero, err
	}
	return l.foldLocked(ctx, e.VendorID)
}

// CurrentBalance folds the vendor's full event history.
func (l *BalanceLedger) CurrentBalance(ctx context.Context, vendorID VendorID) (decimal.Decimal, error) {
	unlock := l.locks.acquire(string(vendorID))
	defer unlock()
	return l.foldLocked(ctx, vendorID)
}

func (l *BalanceLedger) foldLocked(ctx context.Context, vendorID VendorID) (decimal.Decimal, error) {
	events, err := l.store.Query(ctx, EventFilter{VendorID: vendorID, Kinds: VendorKinds()})
	if err != nil {
		return decimal.Zero, err
	}
	return FoldVendorBalance(events), nil
}
