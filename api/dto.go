/*
dto.go - Request/response data structures for the HTTP API

Money and quantity fields travel as JSON strings to preserve decimal
precision end to end; the shopspring decimal type marshals them natively.
Dates travel as YYYY-MM-DD.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/butcherbook/ledger-engine/ledger"
	"github.com/butcherbook/ledger-engine/suggest"
)

// =============================================================================
// EVENT DTOs
// =============================================================================

type CreatePurchaseRequest struct {
	VendorID    string          `json:"vendorId"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	QuantityKg  decimal.Decimal `json:"quantityKg"`
	RatePerKg   decimal.Decimal `json:"ratePerKg"`
	Date        string          `json:"date"` // YYYY-MM-DD
}

type CreateSaleRequest struct {
	Kind        string          `json:"kind"` // "retail" or "hotel"
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	QuantityKg  decimal.Decimal `json:"quantityKg"`
	RatePerKg   decimal.Decimal `json:"ratePerKg"`
	Date        string          `json:"date"`

	// Hotel sales only
	HotelID    string `json:"hotelId,omitempty"`
	BillNumber string `json:"billNumber,omitempty"`
}

type CreatePaymentRequest struct {
	VendorID string          `json:"vendorId"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
	Notes    string          `json:"notes,omitempty"`
}

type EventDTO struct {
	ID           string          `json:"id"`
	Seq          int64           `json:"seq"`
	Kind         string          `json:"kind"`
	VendorID     string          `json:"vendorId,omitempty"`
	HotelID      string          `json:"hotelId,omitempty"`
	BillNumber   string          `json:"billNumber,omitempty"`
	Category     string          `json:"category,omitempty"`
	Subcategory  string          `json:"subcategory,omitempty"`
	QuantityKg   decimal.Decimal `json:"quantityKg"`
	RatePerKg    decimal.Decimal `json:"ratePerKg"`
	Total        decimal.Decimal `json:"total"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes,omitempty"`
	OccurredAt   string          `json:"occurredAt"`
	BusinessDate string          `json:"businessDate"`
}

func toEventDTO(e ledger.Event) EventDTO {
	return EventDTO{
		ID:           string(e.ID),
		Seq:          e.Seq,
		Kind:         string(e.Kind),
		VendorID:     string(e.VendorID),
		HotelID:      string(e.HotelID),
		BillNumber:   e.BillNumber,
		Category:     e.Category,
		Subcategory:  e.Subcategory,
		QuantityKg:   e.QuantityKg,
		RatePerKg:    e.RatePerKg,
		Total:        e.Total,
		Amount:       e.Amount,
		Notes:        e.Notes,
		OccurredAt:   e.OccurredAt.Format(time.RFC3339),
		BusinessDate: e.BusinessDate.String(),
	}
}

func toEventDTOs(events []ledger.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	return dtos
}

// RecordedEventResponse is the response for mutating ledger operations.
// NewBalance is present for vendor-facing events.
type RecordedEventResponse struct {
	Event      EventDTO         `json:"event"`
	NewBalance *decimal.Decimal `json:"newBalance,omitempty"`
}

// =============================================================================
// REPORT DTOs
// =============================================================================

type InventoryPositionDTO struct {
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory"`
	PurchasedKg  decimal.Decimal `json:"purchasedKg"`
	SoldKg       decimal.Decimal `json:"soldKg"`
	RemainingKg  decimal.Decimal `json:"remainingKg"`
	AvgCostPerKg decimal.Decimal `json:"avgCostPerKg"`
}

func toPositionDTOs(positions []ledger.InventoryPosition) []InventoryPositionDTO {
	dtos := make([]InventoryPositionDTO, len(positions))
	for i, p := range positions {
		dtos[i] = InventoryPositionDTO{
			Category:     p.Category,
			Subcategory:  p.Subcategory,
			PurchasedKg:  p.PurchasedKg,
			SoldKg:       p.SoldKg,
			RemainingKg:  p.RemainingKg,
			AvgCostPerKg: p.AvgCostPerKg,
		}
	}
	return dtos
}

type DailySummaryDTO struct {
	Date          string                 `json:"date"`
	PurchasedKg   decimal.Decimal        `json:"purchasedKg"`
	PurchaseCost  decimal.Decimal        `json:"purchaseCost"`
	SoldKg        decimal.Decimal        `json:"soldKg"`
	RetailRevenue decimal.Decimal        `json:"retailRevenue"`
	HotelRevenue  decimal.Decimal        `json:"hotelRevenue"`
	RetailProfit  decimal.Decimal        `json:"retailProfit"`
	HotelProfit   decimal.Decimal        `json:"hotelProfit"`
	NetProfit     decimal.Decimal        `json:"netProfit"`
	RemainingKg   decimal.Decimal        `json:"remainingKg"`
	Positions     []InventoryPositionDTO `json:"positions"`
	Transactions  []EventDTO             `json:"transactions"`
}

func toSummaryDTO(s *ledger.DailySummary) DailySummaryDTO {
	return DailySummaryDTO{
		Date:          s.Date.String(),
		PurchasedKg:   s.PurchasedKg,
		PurchaseCost:  s.PurchaseCost,
		SoldKg:        s.SoldKg,
		RetailRevenue: s.RetailRevenue,
		HotelRevenue:  s.HotelRevenue,
		RetailProfit:  s.RetailProfit,
		HotelProfit:   s.HotelProfit,
		NetProfit:     s.NetProfit,
		RemainingKg:   s.RemainingKg,
		Positions:     toPositionDTOs(s.Positions),
		Transactions:  toEventDTOs(s.Transactions),
	}
}

type BalanceDTO struct {
	VendorID string          `json:"vendorId"`
	Balance  decimal.Decimal `json:"balance"`
}

// =============================================================================
// DIRECTORY DTOs
// =============================================================================

type VendorDTO struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	Phone           string                     `json:"phone,omitempty"`
	Notes           string                     `json:"notes,omitempty"`
	Specializations []string                   `json:"specializations,omitempty"`
	CustomRates     map[string]decimal.Decimal `json:"customRates,omitempty"`
	CreatedAt       string                     `json:"createdAt,omitempty"`
}

func toVendorDTO(v ledger.Vendor) VendorDTO {
	dto := VendorDTO{
		ID:              string(v.ID),
		Name:            v.Name,
		Phone:           v.Phone,
		Notes:           v.Notes,
		Specializations: v.Specializations,
		CustomRates:     v.CustomRates,
	}
	if !v.CreatedAt.IsZero() {
		dto.CreatedAt = v.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func (d VendorDTO) toModel() ledger.Vendor {
	return ledger.Vendor{
		ID:              ledger.VendorID(d.ID),
		Name:            d.Name,
		Phone:           d.Phone,
		Notes:           d.Notes,
		Specializations: d.Specializations,
		CustomRates:     d.CustomRates,
	}
}

type HotelDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	ContactName       string          `json:"contactName,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Address           string          `json:"address,omitempty"`
	OrderFrequency    string          `json:"orderFrequency,omitempty"`
	DeliveryWindow    string          `json:"deliveryWindow,omitempty"`
	PaymentTerms      string          `json:"paymentTerms,omitempty"`
	CreditLimit       decimal.Decimal `json:"creditLimit"`
	PreferredProducts string          `json:"preferredProducts,omitempty"`
	CreatedAt         string          `json:"createdAt,omitempty"`
}

func toHotelDTO(h ledger.Hotel) HotelDTO {
	dto := HotelDTO{
		ID:                string(h.ID),
		Name:              h.Name,
		ContactName:       h.ContactName,
		Phone:             h.Phone,
		Address:           h.Address,
		OrderFrequency:    h.OrderFrequency,
		DeliveryWindow:    h.DeliveryWindow,
		PaymentTerms:      h.PaymentTerms,
		CreditLimit:       h.CreditLimit,
		PreferredProducts: h.PreferredProducts,
	}
	if !h.CreatedAt.IsZero() {
		dto.CreatedAt = h.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func (d HotelDTO) toModel() ledger.Hotel {
	return ledger.Hotel{
		ID:                ledger.HotelID(d.ID),
		Name:              d.Name,
		ContactName:       d.ContactName,
		Phone:             d.Phone,
		Address:           d.Address,
		OrderFrequency:    d.OrderFrequency,
		DeliveryWindow:    d.DeliveryWindow,
		PaymentTerms:      d.PaymentTerms,
		CreditLimit:       d.CreditLimit,
		PreferredProducts: d.PreferredProducts,
	}
}

type ProductDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	DefaultRate decimal.Decimal `json:"defaultRate"`
}

func toProductDTO(p ledger.Product) ProductDTO {
	return ProductDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		DefaultRate: p.DefaultRate,
	}
}

func (d ProductDTO) toModel() ledger.Product {
	return ledger.Product{
		ID:          ledger.ProductID(d.ID),
		Name:        d.Name,
		Category:    d.Category,
		Subcategory: d.Subcategory,
		DefaultRate: d.DefaultRate,
	}
}

type BillDTO struct {
	BillNumber string `json:"billNumber"`
	HotelID    string `json:"hotelId"`
	Date       string `json:"date,omitempty"`
	Paid       bool   `json:"paid"`
}

func toBillDTO(b ledger.HotelBill) BillDTO {
	dto := BillDTO{
		BillNumber: b.BillNumber,
		HotelID:    string(b.HotelID),
		Paid:       b.Paid,
	}
	if !b.Date.IsZero() {
		dto.Date = b.Date.String()
	}
	return dto
}

type SuggestionDTO struct {
	ProductID  string          `json:"productId"`
	QuantityKg decimal.Decimal `json:"quantityKg"`
	RatePerKg  decimal.Decimal `json:"ratePerKg"`
}

func toSuggestionDTOs(lines []suggest.OrderLine) []SuggestionDTO {
	dtos := make([]SuggestionDTO, len(lines))
	for i, l := range lines {
		dtos[i] = SuggestionDTO{
			ProductID:  string(l.ProductID),
			QuantityKg: l.QuantityKg,
			RatePerKg:  l.RatePerKg,
		}
	}
	return dtos
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
