package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DIRECTORY RECORDS - Counterparties and catalog
// =============================================================================

// Vendor is a supplier the business buys from. Balance is always derived
// from the event log (see balance.go), never stored on this record.
type Vendor struct {
	ID              VendorID
	Name            string
	Phone           string
	Notes           string
	Specializations []string                   // e.g. ["chicken", "mutton"]
	CustomRates     map[string]decimal.Decimal // subcategory -> negotiated rate per kg
	CreatedAt       time.Time
}

// Hotel is an institutional customer with standing order preferences.
type Hotel struct {
	ID          HotelID
	Name        string
	ContactName string
	Phone       string
	Address     string

	// Ordering preferences
	OrderFrequency string          // e.g. "daily", "twice-weekly"
	DeliveryWindow string          // e.g. "06:00-08:00"
	PaymentTerms   string          // e.g. "net-7"
	CreditLimit    decimal.Decimal

	// PreferredProducts is either structured JSON or freeform prose
	// describing a habitual order. Parsed best-effort by package suggest.
	PreferredProducts string

	CreatedAt time.Time
}

// Product is one catalog entry: a category/cut pair with a default rate.
type Product struct {
	ID          ProductID
	Name        string
	Category    string
	Subcategory string
	DefaultRate decimal.Decimal
}

// HotelBill groups hotel sale lines by bill number and tracks payment state.
// The lines themselves are immutable events; only Paid changes here.
type HotelBill struct {
	BillNumber string
	HotelID    HotelID
	Date       Date
	Paid       bool
}
