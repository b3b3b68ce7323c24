/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.EventStore and ledger.DirectoryStore using SQLite.
  In production the same patterns apply to PostgreSQL; only minor SQL
  dialect differences.

EVENT LOG ENFORCEMENT:
  - Events are INSERTed and (for the correction flow) DELETEd, never UPDATEd.
  - seq is the table's INTEGER PRIMARY KEY, so insertion order is a real
    monotonic sequence rather than incidental row order. Folds order by
    (business_date, seq).

KEY TABLES:
  events:      The ledger. One row per purchase/sale/payment event.
  vendors:     Supplier records (balance is never stored; always folded).
  hotels:      Institutional customers with ordering preferences.
  products:    The catalog used by the quick-order resolver.
  hotel_bills: Bill paid/unpaid state, kept off the immutable events.

DECIMALS:
  Money and quantity columns are TEXT holding decimal strings. REAL would
  reintroduce the floating-point drift the engine exists to avoid.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers do not
  block, single writer at a time.

ERROR MAPPING:
  Context deadline/cancelation surfaces as ledger.ErrStoreUnavailable, the
  only error class the caller may retry. The store never retries on its own.

USAGE:
  st, err := sqlite.New("./data/ledger.db")
  defer st.Close()
  guard := ledger.NewStockGuard(st)

SEE ALSO:
  - ledger/store.go: Interface definitions and query ordering contract
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/butcherbook/ledger-engine/ledger"
)

// Store implements the ledger storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Ledger events (append + delete-for-correction only; no updates)
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		vendor_id TEXT NOT NULL DEFAULT '',
		hotel_id TEXT NOT NULL DEFAULT '',
		bill_number TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		subcategory TEXT NOT NULL DEFAULT '',
		quantity_kg TEXT NOT NULL DEFAULT '0',
		rate_per_kg TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL DEFAULT '0',
		amount TEXT NOT NULL DEFAULT '0',
		notes TEXT NOT NULL DEFAULT '',
		occurred_at TEXT NOT NULL,
		business_date TEXT NOT NULL
	);

	-- Fold hot paths: per-vendor balance, per-partition stock, day buckets
	CREATE INDEX IF NOT EXISTS idx_events_vendor_date
		ON events(vendor_id, business_date, seq);
	CREATE INDEX IF NOT EXISTS idx_events_partition
		ON events(category, subcategory, business_date, seq);
	CREATE INDEX IF NOT EXISTS idx_events_business_date
		ON events(business_date);
	CREATE INDEX IF NOT EXISTS idx_events_hotel
		ON events(hotel_id) WHERE hotel_id != '';
	CREATE INDEX IF NOT EXISTS idx_events_bill
		ON events(bill_number) WHERE bill_number != '';

	-- Vendors
	CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		specializations_json TEXT NOT NULL DEFAULT '[]',
		custom_rates_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);

	-- Hotels
	CREATE TABLE IF NOT EXISTS hotels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		order_frequency TEXT NOT NULL DEFAULT '',
		delivery_window TEXT NOT NULL DEFAULT '',
		payment_terms TEXT NOT NULL DEFAULT '',
		credit_limit TEXT NOT NULL DEFAULT '0',
		preferred_products TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Products (catalog)
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		default_rate TEXT NOT NULL DEFAULT '0'
	);

	-- Hotel bills (paid flag lives here, not on events)
	CREATE TABLE IF NOT EXISTS hotel_bills (
		bill_number TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL,
		bill_date TEXT NOT NULL DEFAULT '',
		paid INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_hotel_bills_hotel
		ON hotel_bills(hotel_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// mapErr folds transport/deadline failures into the retryable sentinel.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ledger.ErrStoreUnavailable, err)
	}
	return err
}

// =============================================================================
// EVENT STORE (ledger.EventStore interface)
// =============================================================================

func (s *Store) Append(ctx context.Context, e ledger.Event) (ledger.Event, error) {
	query := `
		INSERT INTO events
		(id, kind, vendor_id, hotel_id, bill_number, category, subcategory,
		 quantity_kg, rate_per_kg, total, amount, notes, occurred_at, business_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Kind,
		e.VendorID,
		e.HotelID,
		e.BillNumber,
		e.Category,
		e.Subcategory,
		e.QuantityKg.String(),
		e.RatePerKg.String(),
		e.Total.String(),
		e.Amount.String(),
		e.Notes,
		e.OccurredAt.UTC().Format(time.RFC3339Nano),
		e.BusinessDate.String(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: events.id") {
			return ledger.Event{}, ledger.ErrDuplicateEvent
		}
		return ledger.Event{}, mapErr(err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return ledger.Event{}, mapErr(err)
	}
	e.Seq = seq
	return e, nil
}

func (s *Store) Get(ctx context.Context, id ledger.EventID) (ledger.Event, error) {
	row := s.db.QueryRowContext(ctx, selectEvents+` WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Event{}, &ledger.NotFoundError{Kind: "event", ID: string(id)}
	}
	if err != nil {
		return ledger.Event{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) Delete(ctx context.Context, id ledger.EventID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "event", ID: string(id)}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, f ledger.EventFilter) ([]ledger.Event, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "business_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "business_date <= ?")
		args = append(args, f.To.String())
	}
	if f.VendorID != "" {
		where = append(where, "vendor_id = ?")
		args = append(args, f.VendorID)
	}
	if f.HotelID != "" {
		where = append(where, "hotel_id = ?")
		args = append(args, f.HotelID)
	}
	if f.BillNumber != "" {
		where = append(where, "bill_number = ?")
		args = append(args, f.BillNumber)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Subcategory != "" {
		where = append(where, "subcategory = ?")
		args = append(args, f.Subcategory)
	}
	if len(f.Kinds) > 0 {
		placeholders := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			placeholders[i] = "?"
			args = append(args, k)
		}
		where = append(where, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := selectEvents
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY business_date, seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		events = append(events, e)
	}
	return events, mapErr(rows.Err())
}

const selectEvents = `
	SELECT seq, id, kind, vendor_id, hotel_id, bill_number, category, subcategory,
	       quantity_kg, rate_per_kg, total, amount, notes, occurred_at, business_date
	FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (ledger.Event, error) {
	var (
		e                        ledger.Event
		qty, rate, total, amount string
		occurredAt, businessDate string
	)
	err := r.Scan(&e.Seq, &e.ID, &e.Kind, &e.VendorID, &e.HotelID, &e.BillNumber,
		&e.Category, &e.Subcategory, &qty, &rate, &total, &amount, &e.Notes,
		&occurredAt, &businessDate)
	if err != nil {
		return ledger.Event{}, err
	}

	e.QuantityKg = ledger.MustParseDecimal(qty)
	e.RatePerKg = ledger.MustParseDecimal(rate)
	e.Total = ledger.MustParseDecimal(total)
	e.Amount = ledger.MustParseDecimal(amount)

	if e.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
		return ledger.Event{}, fmt.Errorf("corrupt occurred_at for event %s: %w", e.ID, err)
	}
	if e.BusinessDate, err = ledger.ParseDate(businessDate); err != nil {
		return ledger.Event{}, fmt.Errorf("corrupt business_date for event %s: %w", e.ID, err)
	}
	return e, nil
}

// =============================================================================
// DIRECTORY STORE (ledger.DirectoryStore interface)
// =============================================================================

func (s *Store) SaveVendor(ctx context.Context, v ledger.Vendor) error {
	specs, _ := json.Marshal(v.Specializations)
	rates, _ := json.Marshal(v.CustomRates)
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (id, name, phone, notes, specializations_json, custom_rates_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			notes = excluded.notes,
			specializations_json = excluded.specializations_json,
			custom_rates_json = excluded.custom_rates_json
	`, v.ID, v.Name, v.Phone, v.Notes, string(specs), string(rates),
		v.CreatedAt.Format(time.RFC3339))
	return mapErr(err)
}

func (s *Store) GetVendor(ctx context.Context, id ledger.VendorID) (ledger.Vendor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, notes, specializations_json, custom_rates_json, created_at
		FROM vendors WHERE id = ?`, id)

	var (
		v            ledger.Vendor
		specs, rates string
		createdAt    string
	)
	err := row.Scan(&v.ID, &v.Name, &v.Phone, &v.Notes, &specs, &rates, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Vendor{}, &ledger.NotFoundError{Kind: "vendor", ID: string(id)}
	}
	if err != nil {
		return ledger.Vendor{}, mapErr(err)
	}

	json.Unmarshal([]byte(specs), &v.Specializations)
	json.Unmarshal([]byte(rates), &v.CustomRates)
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return v, nil
}

func (s *Store) ListVendors(ctx context.Context) ([]ledger.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, notes, specializations_json, custom_rates_json, created_at
		FROM vendors ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var vendors []ledger.Vendor
	for rows.Next() {
		var (
			v            ledger.Vendor
			specs, rates string
			createdAt    string
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Phone, &v.Notes, &specs, &rates, &createdAt); err != nil {
			return nil, mapErr(err)
		}
		json.Unmarshal([]byte(specs), &v.Specializations)
		json.Unmarshal([]byte(rates), &v.CustomRates)
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		vendors = append(vendors, v)
	}
	return vendors, mapErr(rows.Err())
}

func (s *Store) DeleteVendor(ctx context.Context, id ledger.VendorID) error {
	return s.deleteRecord(ctx, `DELETE FROM vendors WHERE id = ?`, "vendor", string(id))
}

func (s *Store) SaveHotel(ctx context.Context, h ledger.Hotel) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hotels (id, name, contact_name, phone, address, order_frequency,
			delivery_window, payment_terms, credit_limit, preferred_products, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			contact_name = excluded.contact_name,
			phone = excluded.phone,
			address = excluded.address,
			order_frequency = excluded.order_frequency,
			delivery_window = excluded.delivery_window,
			payment_terms = excluded.payment_terms,
			credit_limit = excluded.credit_limit,
			preferred_products = excluded.preferred_products
	`, h.ID, h.Name, h.ContactName, h.Phone, h.Address, h.OrderFrequency,
		h.DeliveryWindow, h.PaymentTerms, h.CreditLimit.String(), h.PreferredProducts,
		h.CreatedAt.Format(time.RFC3339))
	return mapErr(err)
}

func (s *Store) GetHotel(ctx context.Context, id ledger.HotelID) (ledger.Hotel, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, contact_name, phone, address, order_frequency,
			delivery_window, payment_terms, credit_limit, preferred_products, created_at
		FROM hotels WHERE id = ?`, id)

	h, err := scanHotel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Hotel{}, &ledger.NotFoundError{Kind: "hotel", ID: string(id)}
	}
	if err != nil {
		return ledger.Hotel{}, mapErr(err)
	}
	return h, nil
}

func (s *Store) ListHotels(ctx context.Context) ([]ledger.Hotel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, contact_name, phone, address, order_frequency,
			delivery_window, payment_terms, credit_limit, preferred_products, created_at
		FROM hotels ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var hotels []ledger.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		hotels = append(hotels, h)
	}
	return hotels, mapErr(rows.Err())
}

func scanHotel(r rowScanner) (ledger.Hotel, error) {
	var (
		h           ledger.Hotel
		creditLimit string
		createdAt   string
	)
	err := r.Scan(&h.ID, &h.Name, &h.ContactName, &h.Phone, &h.Address,
		&h.OrderFrequency, &h.DeliveryWindow, &h.PaymentTerms, &creditLimit,
		&h.PreferredProducts, &createdAt)
	if err != nil {
		return ledger.Hotel{}, err
	}
	h.CreditLimit = ledger.MustParseDecimal(creditLimit)
	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return h, nil
}

func (s *Store) DeleteHotel(ctx context.Context, id ledger.HotelID) error {
	return s.deleteRecord(ctx, `DELETE FROM hotels WHERE id = ?`, "hotel", string(id))
}

func (s *Store) SaveProduct(ctx context.Context, p ledger.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, subcategory, default_rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			subcategory = excluded.subcategory,
			default_rate = excluded.default_rate
	`, p.ID, p.Name, p.Category, p.Subcategory, p.DefaultRate.String())
	return mapErr(err)
}

func (s *Store) GetProduct(ctx context.Context, id ledger.ProductID) (ledger.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, subcategory, default_rate FROM products WHERE id = ?`, id)

	var (
		p    ledger.Product
		rate string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Subcategory, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Product{}, &ledger.NotFoundError{Kind: "product", ID: string(id)}
	}
	if err != nil {
		return ledger.Product{}, mapErr(err)
	}
	p.DefaultRate = ledger.MustParseDecimal(rate)
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]ledger.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, subcategory, default_rate FROM products ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var products []ledger.Product
	for rows.Next() {
		var (
			p    ledger.Product
			rate string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Subcategory, &rate); err != nil {
			return nil, mapErr(err)
		}
		p.DefaultRate = ledger.MustParseDecimal(rate)
		products = append(products, p)
	}
	return products, mapErr(rows.Err())
}

func (s *Store) DeleteProduct(ctx context.Context, id ledger.ProductID) error {
	return s.deleteRecord(ctx, `DELETE FROM products WHERE id = ?`, "product", string(id))
}

func (s *Store) SaveBill(ctx context.Context, b ledger.HotelBill) error {
	billDate := ""
	if !b.Date.IsZero() {
		billDate = b.Date.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hotel_bills (bill_number, hotel_id, bill_date, paid)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(bill_number) DO UPDATE SET
			hotel_id = excluded.hotel_id,
			bill_date = excluded.bill_date,
			paid = excluded.paid
	`, b.BillNumber, b.HotelID, billDate, boolToInt(b.Paid))
	return mapErr(err)
}

func (s *Store) GetBill(ctx context.Context, billNumber string) (ledger.HotelBill, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT bill_number, hotel_id, bill_date, paid FROM hotel_bills WHERE bill_number = ?`,
		billNumber)

	var (
		b        ledger.HotelBill
		billDate string
		paid     int
	)
	err := row.Scan(&b.BillNumber, &b.HotelID, &billDate, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.HotelBill{}, &ledger.NotFoundError{Kind: "bill", ID: billNumber}
	}
	if err != nil {
		return ledger.HotelBill{}, mapErr(err)
	}
	if billDate != "" {
		b.Date, _ = ledger.ParseDate(billDate)
	}
	b.Paid = paid != 0
	return b, nil
}

func (s *Store) ListBills(ctx context.Context, hotelID ledger.HotelID) ([]ledger.HotelBill, error) {
	query := `SELECT bill_number, hotel_id, bill_date, paid FROM hotel_bills`
	var args []any
	if hotelID != "" {
		query += ` WHERE hotel_id = ?`
		args = append(args, hotelID)
	}
	query += ` ORDER BY bill_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var bills []ledger.HotelBill
	for rows.Next() {
		var (
			b        ledger.HotelBill
			billDate string
			paid     int
		)
		if err := rows.Scan(&b.BillNumber, &b.HotelID, &billDate, &paid); err != nil {
			return nil, mapErr(err)
		}
		if billDate != "" {
			b.Date, _ = ledger.ParseDate(billDate)
		}
		b.Paid = paid != 0
		bills = append(bills, b)
	}
	return bills, mapErr(rows.Err())
}

func (s *Store) SetBillPaid(ctx context.Context, billNumber string, paid bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hotel_bills SET paid = ? WHERE bill_number = ?`, boolToInt(paid), billNumber)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "bill", ID: billNumber}
	}
	return nil
}

func (s *Store) deleteRecord(ctx context.Context, query, kind, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
