/*
Package ledger provides the core event-ledger engine for a meat-retail business.

PURPOSE:
  This package contains the domain types and algorithms for translating a
  stream of purchase, sale, and payment events into derived state: per-cut
  inventory positions with weighted-average costing, running vendor debt
  balances, and per-day profitability summaries.

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: An immutable ledger entry (Purchase, RetailSale, HotelSale, VendorPayment)
  - InventoryPosition: Derived stock snapshot for one (category, subcategory)
  - DailySummary: Derived per-day report consumed by the presentation layer
  - Vendor/Hotel/Product IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Events are never amended; correction is delete + re-enter
  2. Precision: Uses decimal.Decimal for all money and quantity fields
  3. Derivation: Balances and positions are always folds over the event log,
     never mutable counters updated ad hoc
  4. Ordering: Every event carries a monotonic Seq so same-day folds are stable

USAGE:
  e := ledger.NewPurchase("v-1", "chicken", "leg", ledger.Dec(10), ledger.Dec(180), date)
  if err := e.Validate(); err != nil { ... }

SEE ALSO:
  - inventory.go: Inventory aggregation with weighted-average costing
  - balance.go: Vendor balance fold and mutating operations
  - summary.go: Daily summary compilation
  - store.go: Persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EventID string
type VendorID string
type HotelID string
type ProductID string

// NewEventID returns a fresh unique event identifier.
func NewEventID() EventID {
	return EventID(uuid.NewString())
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// Dec builds a decimal from a float literal. Test and seed convenience.
func Dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// EVENT - Immutable ledger entry
// =============================================================================

type EventKind string

const (
	KindPurchase      EventKind = "purchase"       // Stock bought from a vendor (debits vendor balance)
	KindRetailSale    EventKind = "retail_sale"    // Over-the-counter sale
	KindHotelSale     EventKind = "hotel_sale"     // One line item of a hotel bill
	KindVendorPayment EventKind = "vendor_payment" // Payment to a vendor (credits vendor balance)
)

// Event is one immutable ledger record. Which fields are meaningful depends
// on Kind; Validate enforces the per-kind shape.
//
// Every event carries both OccurredAt (precise timestamp, for audit) and
// BusinessDate (coarse day bucket, for reporting). The two are independent
// fields on purpose: a transaction entered at 00:30 may belong to the
// previous business day.
type Event struct {
	ID   EventID
	Seq  int64 // Monotonic insertion order, assigned by the store on append
	Kind EventKind

	// Counterparty references
	VendorID   VendorID // purchases and payments
	HotelID    HotelID  // hotel sale lines
	BillNumber string   // groups hotel sale lines into one bill

	// Stock movement (purchases and sales)
	Category    string
	Subcategory string
	QuantityKg  decimal.Decimal
	RatePerKg   decimal.Decimal
	Total       decimal.Decimal // QuantityKg * RatePerKg

	// Payment (vendor_payment only)
	Amount decimal.Decimal

	Notes        string
	OccurredAt   time.Time
	BusinessDate Date
}

// IsStockMovement reports whether the event affects inventory positions.
func (e Event) IsStockMovement() bool {
	return e.Kind == KindPurchase || e.IsSale()
}

// IsSale reports whether the event consumes stock.
func (e Event) IsSale() bool {
	return e.Kind == KindRetailSale || e.Kind == KindHotelSale
}

// TouchesVendor reports whether the event participates in a vendor balance fold.
func (e Event) TouchesVendor() bool {
	return e.Kind == KindPurchase || e.Kind == KindVendorPayment
}

// PositionKey identifies the inventory partition this event belongs to.
func (e Event) PositionKey() PositionKey {
	return PositionKey{Category: e.Category, Subcategory: e.Subcategory}
}

// =============================================================================
// EVENT CONSTRUCTORS
// =============================================================================

// NewPurchase builds a purchase event. Total is derived, never passed in.
func NewPurchase(vendorID VendorID, category, subcategory string, quantityKg, ratePerKg decimal.Decimal, date Date) Event {
	return Event{
		ID:           NewEventID(),
		Kind:         KindPurchase,
		VendorID:     vendorID,
		Category:     category,
		Subcategory:  subcategory,
		QuantityKg:   quantityKg,
		RatePerKg:    ratePerKg,
		Total:        quantityKg.Mul(ratePerKg),
		OccurredAt:   time.Now().UTC(),
		BusinessDate: date,
	}
}

// NewRetailSale builds an over-the-counter sale event.
func NewRetailSale(category, subcategory string, quantityKg, ratePerKg decimal.Decimal, date Date) Event {
	return Event{
		ID:           NewEventID(),
		Kind:         KindRetailSale,
		Category:     category,
		Subcategory:  subcategory,
		QuantityKg:   quantityKg,
		RatePerKg:    ratePerKg,
		Total:        quantityKg.Mul(ratePerKg),
		OccurredAt:   time.Now().UTC(),
		BusinessDate: date,
	}
}

// NewHotelSaleLine builds one line item of a hotel bill.
func NewHotelSaleLine(hotelID HotelID, billNumber, category, subcategory string, quantityKg, ratePerKg decimal.Decimal, date Date) Event {
	return Event{
		ID:           NewEventID(),
		Kind:         KindHotelSale,
		HotelID:      hotelID,
		BillNumber:   billNumber,
		Category:     category,
		Subcategory:  subcategory,
		QuantityKg:   quantityKg,
		RatePerKg:    ratePerKg,
		Total:        quantityKg.Mul(ratePerKg),
		OccurredAt:   time.Now().UTC(),
		BusinessDate: date,
	}
}

// NewVendorPayment builds a payment event against a vendor's outstanding balance.
func NewVendorPayment(vendorID VendorID, amount decimal.Decimal, date Date, notes string) Event {
	return Event{
		ID:           NewEventID(),
		Kind:         KindVendorPayment,
		VendorID:     vendorID,
		Amount:       amount,
		Notes:        notes,
		OccurredAt:   time.Now().UTC(),
		BusinessDate: date,
	}
}

// Validate checks the per-kind shape of the event. Runs before any
// persistence attempt; a failing event is never written.
func (e Event) Validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: "missing event id"}
	}
	if e.BusinessDate.IsZero() {
		return &ValidationError{Field: "business_date", Reason: "missing business date"}
	}

	switch e.Kind {
	case KindPurchase:
		if e.VendorID == "" {
			return &ValidationError{Field: "vendor_id", Reason: "purchase requires a vendor"}
		}
		return e.validateStockFields()
	case KindRetailSale:
		return e.validateStockFields()
	case KindHotelSale:
		if e.HotelID == "" {
			return &ValidationError{Field: "hotel_id", Reason: "hotel sale requires a hotel"}
		}
		if e.BillNumber == "" {
			return &ValidationError{Field: "bill_number", Reason: "hotel sale requires a bill number"}
		}
		return e.validateStockFields()
	case KindVendorPayment:
		if e.VendorID == "" {
			return &ValidationError{Field: "vendor_id", Reason: "payment requires a vendor"}
		}
		if !e.Amount.IsPositive() {
			return &ValidationError{Field: "amount", Reason: "payment amount must be positive"}
		}
		return nil
	default:
		return &ValidationError{Field: "kind", Reason: "unknown event kind"}
	}
}

func (e Event) validateStockFields() error {
	if e.Category == "" {
		return &ValidationError{Field: "category", Reason: "missing category"}
	}
	if e.Subcategory == "" {
		return &ValidationError{Field: "subcategory", Reason: "missing subcategory"}
	}
	if !e.QuantityKg.IsPositive() {
		return &ValidationError{Field: "quantity_kg", Reason: "quantity must be positive"}
	}
	if !e.RatePerKg.IsPositive() {
		return &ValidationError{Field: "rate_per_kg", Reason: "rate must be positive"}
	}
	return nil
}

// =============================================================================
// INVENTORY POSITION - Derived stock snapshot
// =============================================================================

// PositionKey is the inventory partition key.
type PositionKey struct {
	Category    string
	Subcategory string
}

// InventoryPosition is the derived stock state for one (category, subcategory)
// over an aggregation window. Never persisted; always recomputed from events.
type InventoryPosition struct {
	Category     string
	Subcategory  string
	PurchasedKg  decimal.Decimal
	SoldKg       decimal.Decimal
	RemainingKg  decimal.Decimal // PurchasedKg - SoldKg
	AvgCostPerKg decimal.Decimal // Weighted average of purchase rates; zero if no purchases
}

// =============================================================================
// DAILY SUMMARY - Derived per-day report
// =============================================================================

// DailySummary is the read-only report for one business date.
//
// Headline purchased/sold figures are day-only window sums; RemainingKg and
// the Positions list are cumulative to end of day, because remaining stock is
// a running total. Profit may be negative.
type DailySummary struct {
	Date Date

	// Day-only headline figures
	PurchasedKg   decimal.Decimal
	PurchaseCost  decimal.Decimal
	SoldKg        decimal.Decimal
	RetailRevenue decimal.Decimal
	HotelRevenue  decimal.Decimal
	RetailProfit  decimal.Decimal
	HotelProfit   decimal.Decimal
	NetProfit     decimal.Decimal // RetailProfit + HotelProfit

	// Cumulative to end of the target date
	RemainingKg decimal.Decimal
	Positions   []InventoryPosition

	// Raw events attributed to the target date, in ledger order
	Transactions []Event
}
