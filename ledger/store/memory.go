// Package store provides in-memory implementations of the ledger
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/butcherbook/ledger-engine/ledger"
)

// =============================================================================
// MEMORY EVENT STORE
// =============================================================================

// Memory implements ledger.EventStore and ledger.DirectoryStore in memory.
type Memory struct {
	mu      sync.RWMutex
	nextSeq int64
	events  []ledger.Event
	byID    map[ledger.EventID]int // index into events

	vendors  map[ledger.VendorID]ledger.Vendor
	hotels   map[ledger.HotelID]ledger.Hotel
	products map[ledger.ProductID]ledger.Product
	bills    map[string]ledger.HotelBill
}

func NewMemory() *Memory {
	return &Memory{
		nextSeq:  1,
		byID:     make(map[ledger.EventID]int),
		vendors:  make(map[ledger.VendorID]ledger.Vendor),
		hotels:   make(map[ledger.HotelID]ledger.Hotel),
		products: make(map[ledger.ProductID]ledger.Product),
		bills:    make(map[string]ledger.HotelBill),
	}
}

func (m *Memory) Append(_ context.Context, e ledger.Event) (ledger.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[e.ID]; exists {
		return ledger.Event{}, ledger.ErrDuplicateEvent
	}

	e.Seq = m.nextSeq
	m.nextSeq++
	m.byID[e.ID] = len(m.events)
	m.events = append(m.events, e)
	return e, nil
}

func (m *Memory) Get(_ context.Context, id ledger.EventID) (ledger.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok {
		return ledger.Event{}, &ledger.NotFoundError{Kind: "event", ID: string(id)}
	}
	return m.events[i], nil
}

func (m *Memory) Delete(_ context.Context, id ledger.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.byID[id]
	if !ok {
		return &ledger.NotFoundError{Kind: "event", ID: string(id)}
	}

	m.events = append(m.events[:i], m.events[i+1:]...)
	delete(m.byID, id)
	for j := i; j < len(m.events); j++ {
		m.byID[m.events[j].ID] = j
	}
	return nil
}

func (m *Memory) Query(_ context.Context, f ledger.EventFilter) ([]ledger.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Event
	for _, e := range m.events {
		if f.Matches(e) {
			result = append(result, e)
		}
	}

	// Events append in seq order, but the fold contract is
	// (business_date, seq): a back-dated entry must fold by its date.
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].BusinessDate.Equal(result[j].BusinessDate) {
			return result[i].BusinessDate.Before(result[j].BusinessDate)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// =============================================================================
// DIRECTORY RECORDS
// =============================================================================

func (m *Memory) SaveVendor(_ context.Context, v ledger.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendors[v.ID] = v
	return nil
}

func (m *Memory) GetVendor(_ context.Context, id ledger.VendorID) (ledger.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vendors[id]
	if !ok {
		return ledger.Vendor{}, &ledger.NotFoundError{Kind: "vendor", ID: string(id)}
	}
	return v, nil
}

func (m *Memory) ListVendors(_ context.Context) ([]ledger.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Vendor, 0, len(m.vendors))
	for _, v := range m.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteVendor(_ context.Context, id ledger.VendorID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vendors[id]; !ok {
		return &ledger.NotFoundError{Kind: "vendor", ID: string(id)}
	}
	delete(m.vendors, id)
	return nil
}

func (m *Memory) SaveHotel(_ context.Context, h ledger.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[h.ID] = h
	return nil
}

func (m *Memory) GetHotel(_ context.Context, id ledger.HotelID) (ledger.Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hotels[id]
	if !ok {
		return ledger.Hotel{}, &ledger.NotFoundError{Kind: "hotel", ID: string(id)}
	}
	return h, nil
}

func (m *Memory) ListHotels(_ context.Context) ([]ledger.Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Hotel, 0, len(m.hotels))
	for _, h := range m.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteHotel(_ context.Context, id ledger.HotelID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hotels[id]; !ok {
		return &ledger.NotFoundError{Kind: "hotel", ID: string(id)}
	}
	delete(m.hotels, id)
	return nil
}

func (m *Memory) SaveProduct(_ context.Context, p ledger.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id ledger.ProductID) (ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return ledger.Product{}, &ledger.NotFoundError{Kind: "product", ID: string(id)}
	}
	return p, nil
}

func (m *Memory) ListProducts(_ context.Context) ([]ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id ledger.ProductID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return &ledger.NotFoundError{Kind: "product", ID: string(id)}
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) SaveBill(_ context.Context, b ledger.HotelBill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[b.BillNumber] = b
	return nil
}

func (m *Memory) GetBill(_ context.Context, billNumber string) (ledger.HotelBill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bills[billNumber]
	if !ok {
		return ledger.HotelBill{}, &ledger.NotFoundError{Kind: "bill", ID: billNumber}
	}
	return b, nil
}

func (m *Memory) ListBills(_ context.Context, hotelID ledger.HotelID) ([]ledger.HotelBill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.HotelBill
	for _, b := range m.bills {
		if hotelID == "" || b.HotelID == hotelID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillNumber < out[j].BillNumber })
	return out, nil
}

func (m *Memory) SetBillPaid(_ context.Context, billNumber string, paid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billNumber]
	if !ok {
		return &ledger.NotFoundError{Kind: "bill", ID: billNumber}
	}
	b.Paid = paid
	m.bills[billNumber] = b
	return nil
}
