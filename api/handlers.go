/*
handlers.go - HTTP API handlers for the meat-retail ledger engine

PURPOSE:
  Exposes the ledger engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Ledger:
    POST   /api/purchases              Record a purchase (returns new vendor balance)
    POST   /api/sales                  Record a retail sale or hotel sale line
    POST   /api/payments               Record a vendor payment
    GET    /api/events                 Query events by date range / counterparty
    DELETE /api/events/{id}            Delete (correction flow; re-folds balances)

  Reports:
    GET    /api/summary?date=          Daily summary
    GET    /api/inventory?as_of=       Cumulative inventory positions

  Directory:
    CRUD   /api/vendors, /api/hotels, /api/products
    GET    /api/vendors/{id}/balance
    GET    /api/vendors/{id}/statement
    GET    /api/hotels/{id}/suggestions
    GET    /api/hotels/{id}/bills
    POST   /api/bills/{billNumber}/paid

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown vendor/hotel/product/event/bill
  - 409: Insufficient stock, duplicate event id
  - 503: Event store unavailable (caller may retry)
  - 500: Everything else
  A financial write that fails is always reported as a failure.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/butcherbook/ledger-engine/ledger"
	"github.com/butcherbook/ledger-engine/suggest"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Events    ledger.EventStore
	Directory ledger.DirectoryStore
	Guard     *ledger.StockGuard
	Balances  *ledger.BalanceLedger
	Summaries *ledger.SummaryCompiler
	Resolver  *suggest.Resolver
	Log       *zap.Logger
}

// NewHandler wires the engine components around the given stores.
func NewHandler(events ledger.EventStore, directory ledger.DirectoryStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Events:    events,
		Directory: directory,
		Guard:     ledger.NewStockGuard(events),
		Balances:  ledger.NewBalanceLedger(events),
		Summaries: ledger.NewSummaryCompiler(events),
		Resolver:  suggest.New(),
		Log:       log,
	}
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// CreatePurchase records a purchase event and returns the new vendor balance.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	// The vendor reference must exist before money is owed to it.
	if _, err := h.Directory.GetVendor(r.Context(), ledger.VendorID(req.VendorID)); err != nil {
		h.writeDomainError(w, err)
		return
	}

	e := ledger.NewPurchase(ledger.VendorID(req.VendorID), req.Category, req.Subcategory,
		req.QuantityKg, req.RatePerKg, date)

	stored, balance, err := h.Balances.RecordPurchase(r.Context(), e)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.Log.Info("purchase recorded",
		zap.String("event_id", string(stored.ID)),
		zap.String("vendor_id", req.VendorID),
		zap.String("total", stored.Total.String()))

	writeJSON(w, http.StatusCreated, RecordedEventResponse{
		Event:      toEventDTO(stored),
		NewBalance: &balance,
	})
}

// CreateSale records a retail sale or hotel sale line, guarded by stock
// availability.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	var e ledger.Event
	switch req.Kind {
	case "retail":
		e = ledger.NewRetailSale(req.Category, req.Subcategory, req.QuantityKg, req.RatePerKg, date)
	case "hotel":
		hotelID := ledger.HotelID(req.HotelID)
		if _, err := h.Directory.GetHotel(r.Context(), hotelID); err != nil {
			h.writeDomainError(w, err)
			return
		}
		e = ledger.NewHotelSaleLine(hotelID, req.BillNumber, req.Category, req.Subcategory,
			req.QuantityKg, req.RatePerKg, date)
	default:
		writeError(w, http.StatusBadRequest, "Invalid sale kind (use retail or hotel)", nil)
		return
	}

	stored, err := h.Guard.RecordSale(r.Context(), e)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	// Hotel sale lines keep their bill record alive (unpaid until marked).
	if stored.Kind == ledger.KindHotelSale {
		if _, err := h.Directory.GetBill(r.Context(), stored.BillNumber); ledger.IsNotFound(err) {
			bill := ledger.HotelBill{
				BillNumber: stored.BillNumber,
				HotelID:    stored.HotelID,
				Date:       stored.BusinessDate,
			}
			if err := h.Directory.SaveBill(r.Context(), bill); err != nil {
				h.Log.Warn("failed to create bill record",
					zap.String("bill_number", stored.BillNumber), zap.Error(err))
			}
		}
	}

	h.Log.Info("sale recorded",
		zap.String("event_id", string(stored.ID)),
		zap.String("kind", string(stored.Kind)),
		zap.String("total", stored.Total.String()))

	writeJSON(w, http.StatusCreated, RecordedEventResponse{Event: toEventDTO(stored)})
}

// CreatePayment records a vendor payment and returns the new balance.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	if _, err := h.Directory.GetVendor(r.Context(), ledger.VendorID(req.VendorID)); err != nil {
		h.writeDomainError(w, err)
		return
	}

	e := ledger.NewVendorPayment(ledger.VendorID(req.VendorID), req.Amount, date, req.Notes)

	stored, balance, err := h.Balances.RecordPayment(r.Context(), e)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.Log.Info("payment recorded",
		zap.String("event_id", string(stored.ID)),
		zap.String("vendor_id", req.VendorID),
		zap.String("amount", stored.Amount.String()))

	writeJSON(w, http.StatusCreated, RecordedEventResponse{
		Event:      toEventDTO(stored),
		NewBalance: &balance,
	})
}

// DeleteEvent removes an event (correction flow) and re-folds dependents.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := ledger.EventID(chi.URLParam(r, "id"))

	balance, err := h.Balances.DeleteEvent(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.Log.Info("event deleted", zap.String("event_id", string(id)))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id), "newBalance": balance})
}

// ListEvents queries the event log.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var f ledger.EventFilter
	q := r.URL.Query()

	if s := q.Get("from"); s != "" {
		d, err := ledger.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		f.From = d
	}
	if s := q.Get("to"); s != "" {
		d, err := ledger.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		f.To = d
	}
	f.VendorID = ledger.VendorID(q.Get("vendor_id"))
	f.HotelID = ledger.HotelID(q.Get("hotel_id"))
	f.BillNumber = q.Get("bill_number")

	events, err := h.Events.Query(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetDailySummary compiles the report for one business date.
func (h *Handler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	date := ledger.Today()
	if dateStr != "" {
		var err error
		if date, err = ledger.ParseDate(dateStr); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
	}

	summary, err := h.Summaries.Compile(r.Context(), date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// GetInventory returns cumulative positions as of a date (default today).
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	asOfStr := r.URL.Query().Get("as_of")
	asOf := ledger.Today()
	if asOfStr != "" {
		var err error
		if asOf, err = ledger.ParseDate(asOfStr); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
			return
		}
	}

	positions, err := h.Summaries.PositionsAsOf(r.Context(), asOf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPositionDTOs(positions))
}

// =============================================================================
// VENDOR HANDLERS
// =============================================================================

func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.Directory.ListVendors(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]VendorDTO, len(vendors))
	for i, v := range vendors {
		dtos[i] = toVendorDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetVendor(w http.ResponseWriter, r *http.Request) {
	v, err := h.Directory.GetVendor(r.Context(), ledger.VendorID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendorDTO(v))
}

func (h *Handler) SaveVendor(w http.ResponseWriter, r *http.Request) {
	var dto VendorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" || dto.Name == "" {
		writeError(w, http.StatusBadRequest, "Vendor id and name are required", nil)
		return
	}
	if err := h.Directory.SaveVendor(r.Context(), dto.toModel()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) DeleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteVendor(r.Context(), ledger.VendorID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVendorBalance folds the vendor's full event history.
func (h *Handler) GetVendorBalance(w http.ResponseWriter, r *http.Request) {
	id := ledger.VendorID(chi.URLParam(r, "id"))
	if _, err := h.Directory.GetVendor(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	balance, err := h.Balances.CurrentBalance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{VendorID: string(id), Balance: balance})
}

// GetVendorStatement lists the vendor's purchases and payments in fold order.
func (h *Handler) GetVendorStatement(w http.ResponseWriter, r *http.Request) {
	id := ledger.VendorID(chi.URLParam(r, "id"))
	if _, err := h.Directory.GetVendor(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	events, err := h.Events.Query(r.Context(), ledger.EventFilter{
		VendorID: id,
		Kinds:    ledger.VendorKinds(),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// =============================================================================
// HOTEL HANDLERS
// =============================================================================

func (h *Handler) ListHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Directory.ListHotels(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]HotelDTO, len(hotels))
	for i, hotel := range hotels {
		dtos[i] = toHotelDTO(hotel)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Directory.GetHotel(r.Context(), ledger.HotelID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelDTO(hotel))
}

func (h *Handler) SaveHotel(w http.ResponseWriter, r *http.Request) {
	var dto HotelDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" || dto.Name == "" {
		writeError(w, http.StatusBadRequest, "Hotel id and name are required", nil)
		return
	}
	if err := h.Directory.SaveHotel(r.Context(), dto.toModel()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) DeleteHotel(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteHotel(r.Context(), ledger.HotelID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHotelSuggestions resolves the hotel's stored preferences into suggested
// order lines. An empty list is a normal outcome, not an error.
func (h *Handler) GetHotelSuggestions(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Directory.GetHotel(r.Context(), ledger.HotelID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	catalog, err := h.Directory.ListProducts(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	lines := h.Resolver.Resolve(hotel.PreferredProducts, catalog)
	writeJSON(w, http.StatusOK, toSuggestionDTOs(lines))
}

func (h *Handler) ListHotelBills(w http.ResponseWriter, r *http.Request) {
	id := ledger.HotelID(chi.URLParam(r, "id"))
	if _, err := h.Directory.GetHotel(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	bills, err := h.Directory.ListBills(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]BillDTO, len(bills))
	for i, b := range bills {
		dtos[i] = toBillDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetBillPaid marks a hotel bill paid or unpaid. Body: {"paid": bool}.
func (h *Handler) SetBillPaid(w http.ResponseWriter, r *http.Request) {
	billNumber := chi.URLParam(r, "billNumber")

	var req struct {
		Paid bool `json:"paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Directory.SetBillPaid(r.Context(), billNumber, req.Paid); err != nil {
		h.writeDomainError(w, err)
		return
	}

	bill, err := h.Directory.GetBill(r.Context(), billNumber)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(bill))
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Directory.ListProducts(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Directory.GetProduct(r.Context(), ledger.ProductID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var dto ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" || dto.Name == "" || dto.Category == "" || dto.Subcategory == "" {
		writeError(w, http.StatusBadRequest, "Product id, name, category and subcategory are required", nil)
		return
	}
	if err := h.Directory.SaveProduct(r.Context(), dto.toModel()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteProduct(r.Context(), ledger.ProductID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, ledger.ErrInsufficientStock), errors.Is(err, ledger.ErrDuplicateEvent):
		writeError(w, http.StatusConflict, "Request rejected", err)
	case errors.Is(err, ledger.ErrValidation):
		writeError(w, http.StatusBadRequest, "Request rejected", err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, "Event store unavailable, retry later", err)
	default:
		h.Log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
