/*
store.go - Persistence interfaces for the event log and directory records

PURPOSE:
  Defines the boundary between the ledger engine and the durable store.
  The store is an external collaborator reachable over request/response
  calls; the engine treats it as a queryable log filterable by date and
  counterparty, plus plain record storage for vendors, hotels, and products.

EVENT LOG CONTRACT:
  - Append assigns a monotonic Seq and persists the event.
  - No Update. Correction is Delete followed by re-entry; the engine re-folds
    every derived aggregate that included the deleted event.
  - Query returns events ordered by (business_date, seq). The explicit Seq
    makes same-day fold order stable across storage backends.

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory, for tests and development
  - store/sqlite/sqlite.go: Production SQLite

SEE ALSO:
  - balance.go: Folds vendor events loaded through Query
  - guard.go: Serializes check-then-append around this interface
*/
package ledger

import "context"

// =============================================================================
// EVENT STORE - Append/delete/query over the immutable event log
// =============================================================================

// EventStore persists ledger events.
//
// Append is the only way state enters the log; Delete exists solely for the
// delete-then-re-enter correction flow and must remove exactly one event.
type EventStore interface {
	// Append persists the event, assigns Seq, and returns the stored copy.
	Append(ctx context.Context, e Event) (Event, error)

	// Get returns the event with the given id, or NotFoundError.
	Get(ctx context.Context, id EventID) (Event, error)

	// Delete removes the event with the given id, or NotFoundError.
	// Callers are responsible for re-folding dependent aggregates.
	Delete(ctx context.Context, id EventID) error

	// Query returns events matching the filter, ordered by
	// (business_date, seq) ascending.
	Query(ctx context.Context, f EventFilter) ([]Event, error)
}

// EventFilter narrows a Query. Zero-valued fields are ignored.
type EventFilter struct {
	From Date // inclusive
	To   Date // inclusive

	VendorID    VendorID
	HotelID     HotelID
	BillNumber  string
	Category    string
	Subcategory string
	Kinds       []EventKind
}

// Matches reports whether the event passes the filter. Store implementations
// may use this directly or translate the filter to their query language.
func (f EventFilter) Matches(e Event) bool {
	if !f.From.IsZero() && e.BusinessDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.BusinessDate.After(f.To) {
		return false
	}
	if f.VendorID != "" && e.VendorID != f.VendorID {
		return false
	}
	if f.HotelID != "" && e.HotelID != f.HotelID {
		return false
	}
	if f.BillNumber != "" && e.BillNumber != f.BillNumber {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Subcategory != "" && e.Subcategory != f.Subcategory {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if e.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// StockKinds selects the events that move inventory.
func StockKinds() []EventKind {
	return []EventKind{KindPurchase, KindRetailSale, KindHotelSale}
}

// VendorKinds selects the events that participate in a vendor balance fold.
func VendorKinds() []EventKind {
	return []EventKind{KindPurchase, KindVendorPayment}
}

// =============================================================================
// DIRECTORY STORE - Vendor/hotel/product records and hotel bill state
// =============================================================================

// DirectoryStore persists the counterparty and catalog records the ledger
// references. Plain record storage; no derived state lives here.
type DirectoryStore interface {
	SaveVendor(ctx context.Context, v Vendor) error
	GetVendor(ctx context.Context, id VendorID) (Vendor, error)
	ListVendors(ctx context.Context) ([]Vendor, error)
	DeleteVendor(ctx context.Context, id VendorID) error

	SaveHotel(ctx context.Context, h Hotel) error
	GetHotel(ctx context.Context, id HotelID) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	DeleteHotel(ctx context.Context, id HotelID) error

	SaveProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id ProductID) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	DeleteProduct(ctx context.Context, id ProductID) error

	// Hotel bills: paid/unpaid state lives on the bill record so the
	// underlying sale events stay immutable.
	SaveBill(ctx context.Context, b HotelBill) error
	GetBill(ctx context.Context, billNumber string) (HotelBill, error)
	ListBills(ctx context.Context, hotelID HotelID) ([]HotelBill, error)
	SetBillPaid(ctx context.Context, billNumber string, paid bool) error
}
