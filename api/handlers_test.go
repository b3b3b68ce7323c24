package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butcherbook/ledger-engine/api"
	"github.com/butcherbook/ledger-engine/ledger"
	"github.com/butcherbook/ledger-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	handler := api.NewHandler(mem, mem, nil)
	srv := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv, mem
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func seedVendor(t *testing.T, srv *httptest.Server, id, name string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/vendors", map[string]any{"id": id, "name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func seedHotel(t *testing.T, srv *httptest.Server, id, name, preferred string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/hotels", map[string]any{
		"id": id, "name": name, "preferredProducts": preferred,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func seedPurchase(t *testing.T, srv *httptest.Server, vendorID, category, subcategory string, qty, rate float64) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/purchases", map[string]any{
		"vendorId":    vendorID,
		"category":    category,
		"subcategory": subcategory,
		"quantityKg":  qty,
		"ratePerKg":   rate,
		"date":        "2026-08-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

func TestAPI_CreatePurchase_ReturnsNewBalance(t *testing.T) {
	// GIVEN: A known vendor
	// WHEN: POSTing a 10kg @ 180 purchase
	// THEN: 201 with the stored event and the new vendor balance 1800

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/purchases", map[string]any{
		"vendorId":    "v-1",
		"category":    "chicken",
		"subcategory": "leg",
		"quantityKg":  10,
		"ratePerKg":   180,
		"date":        "2026-08-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body api.RecordedEventResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "purchase", body.Event.Kind)
	assert.Equal(t, int64(1), body.Event.Seq)
	require.NotNil(t, body.NewBalance)
	assert.Equal(t, "1800", body.NewBalance.String())
}

func TestAPI_CreatePurchase_UnknownVendor_404(t *testing.T) {
	// GIVEN: No vendors registered
	// WHEN: POSTing a purchase against v-ghost
	// THEN: 404, nothing persisted

	srv, mem := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/purchases", map[string]any{
		"vendorId": "v-ghost", "category": "chicken", "subcategory": "leg",
		"quantityKg": 5, "ratePerKg": 100, "date": "2026-08-01",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	events, err := mem.Query(context.Background(), ledger.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAPI_CreatePurchase_InvalidQuantity_400(t *testing.T) {
	// GIVEN: A known vendor
	// WHEN: POSTing a purchase with zero quantity
	// THEN: 400 validation error

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/purchases", map[string]any{
		"vendorId": "v-1", "category": "chicken", "subcategory": "leg",
		"quantityKg": 0, "ratePerKg": 180, "date": "2026-08-01",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateSale_InsufficientStock_409(t *testing.T) {
	// GIVEN: 10kg of chicken leg in stock
	// WHEN: Selling 12kg retail
	// THEN: 409 with the available quantity in the error details

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", map[string]any{
		"kind": "retail", "category": "chicken", "subcategory": "leg",
		"quantityKg": 12, "ratePerKg": 260, "date": "2026-08-02",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body api.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Details, "available 10")
}

func TestAPI_CreateHotelSale_CreatesBillRecord(t *testing.T) {
	// GIVEN: Stock and a registered hotel
	// WHEN: POSTing a hotel sale line with a new bill number
	// THEN: 201, and the bill appears unpaid under the hotel

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedHotel(t, srv, "h-1", "Hotel Sunrise", "")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", map[string]any{
		"kind": "hotel", "hotelId": "h-1", "billNumber": "B-100",
		"category": "chicken", "subcategory": "leg",
		"quantityKg": 4, "ratePerKg": 240, "date": "2026-08-02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	billsResp := doJSON(t, http.MethodGet, srv.URL+"/api/hotels/h-1/bills", nil)
	require.Equal(t, http.StatusOK, billsResp.StatusCode)

	var bills []api.BillDTO
	decodeBody(t, billsResp, &bills)
	require.Len(t, bills, 1)
	assert.Equal(t, "B-100", bills[0].BillNumber)
	assert.False(t, bills[0].Paid)
}

func TestAPI_CreateSale_UnknownKind_400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", map[string]any{
		"kind": "wholesale", "category": "chicken", "subcategory": "leg",
		"quantityKg": 1, "ratePerKg": 100, "date": "2026-08-02",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreatePayment_ClampsAtZero(t *testing.T) {
	// GIVEN: A vendor owed 1800
	// WHEN: Paying 2500
	// THEN: The returned balance clamps at zero

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payments", map[string]any{
		"vendorId": "v-1", "amount": 2500, "date": "2026-08-02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body api.RecordedEventResponse
	decodeBody(t, resp, &body)
	require.NotNil(t, body.NewBalance)
	assert.Equal(t, "0", body.NewBalance.String())
}

func TestAPI_DeleteEvent_RefoldsBalance(t *testing.T) {
	// GIVEN: A purchase and a payment against it
	// WHEN: Deleting the payment
	// THEN: 200 with the re-folded balance

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	payResp := doJSON(t, http.MethodPost, srv.URL+"/api/payments", map[string]any{
		"vendorId": "v-1", "amount": 800, "date": "2026-08-02",
	})
	require.Equal(t, http.StatusCreated, payResp.StatusCode)
	var payment api.RecordedEventResponse
	decodeBody(t, payResp, &payment)

	delResp := doJSON(t, http.MethodDelete, srv.URL+"/api/events/"+payment.Event.ID, nil)
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	var body struct {
		Deleted    string `json:"deleted"`
		NewBalance string `json:"newBalance"`
	}
	decodeBody(t, delResp, &body)
	assert.Equal(t, payment.Event.ID, body.Deleted)
	assert.Equal(t, "1800", body.NewBalance)
}

func TestAPI_DeleteEvent_Unknown_404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/events/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ListEvents_FilterByVendor(t *testing.T) {
	// GIVEN: Purchases from two vendors
	// WHEN: Listing events for one of them
	// THEN: Only that vendor's events come back

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedVendor(t, srv, "v-2", "City Poultry")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)
	seedPurchase(t, srv, "v-2", "mutton", "whole", 2, 400)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/events?vendor_id=v-2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []api.EventDTO
	decodeBody(t, resp, &events)
	require.Len(t, events, 1)
	assert.Equal(t, "v-2", events[0].VendorID)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

func TestAPI_GetDailySummary(t *testing.T) {
	// GIVEN: A purchase and a retail sale on 2026-08-01
	// WHEN: Requesting that day's summary
	// THEN: Headline figures and profit reflect both events

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	saleResp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", map[string]any{
		"kind": "retail", "category": "chicken", "subcategory": "leg",
		"quantityKg": 4, "ratePerKg": 260, "date": "2026-08-01",
	})
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/summary?date=2026-08-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s api.DailySummaryDTO
	decodeBody(t, resp, &s)
	assert.Equal(t, "2026-08-01", s.Date)
	assert.Equal(t, "10", s.PurchasedKg.String())
	assert.Equal(t, "4", s.SoldKg.String())
	assert.Equal(t, "320", s.RetailProfit.String())
	assert.Equal(t, "6", s.RemainingKg.String())
	assert.Len(t, s.Transactions, 2)
}

func TestAPI_GetInventory_AsOfDate(t *testing.T) {
	// GIVEN: Stock purchased on 2026-08-01
	// WHEN: Requesting inventory as of the day before
	// THEN: Empty positions

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/inventory?as_of=2026-07-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var positions []api.InventoryPositionDTO
	decodeBody(t, resp, &positions)
	assert.Empty(t, positions)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/inventory?as_of=2026-08-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &positions)
	require.Len(t, positions, 1)
	assert.Equal(t, "10", positions[0].RemainingKg.String())
}

// =============================================================================
// DIRECTORY ENDPOINTS
// =============================================================================

func TestAPI_VendorCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	// Create
	seedVendor(t, srv, "v-1", "Alam Traders")

	// Read
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/vendors/v-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v api.VendorDTO
	decodeBody(t, resp, &v)
	assert.Equal(t, "Alam Traders", v.Name)

	// List
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/vendors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []api.VendorDTO
	decodeBody(t, resp, &list)
	assert.Len(t, list, 1)

	// Delete
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/vendors/v-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/vendors/v-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_SaveVendor_MissingName_400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/vendors", map[string]any{"id": "v-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetVendorBalance(t *testing.T) {
	// GIVEN: Purchases of 1800 and a payment of 500
	// WHEN: Requesting the balance
	// THEN: 1300

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	payResp := doJSON(t, http.MethodPost, srv.URL+"/api/payments", map[string]any{
		"vendorId": "v-1", "amount": 500, "date": "2026-08-02",
	})
	require.Equal(t, http.StatusCreated, payResp.StatusCode)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/vendors/v-1/balance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.BalanceDTO
	decodeBody(t, resp, &body)
	assert.Equal(t, "1300", body.Balance.String())
}

func TestAPI_GetVendorStatement_FoldOrder(t *testing.T) {
	// GIVEN: A purchase then a payment
	// WHEN: Requesting the statement
	// THEN: Events in (date, seq) order, vendor events only

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	payResp := doJSON(t, http.MethodPost, srv.URL+"/api/payments", map[string]any{
		"vendorId": "v-1", "amount": 500, "date": "2026-08-02",
	})
	require.Equal(t, http.StatusCreated, payResp.StatusCode)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/vendors/v-1/statement", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []api.EventDTO
	decodeBody(t, resp, &events)
	require.Len(t, events, 2)
	assert.Equal(t, "purchase", events[0].Kind)
	assert.Equal(t, "vendor_payment", events[1].Kind)
}

func TestAPI_GetHotelSuggestions_Freeform(t *testing.T) {
	// GIVEN: A hotel with freeform preferences and a matching catalog
	// WHEN: Requesting suggestions
	// THEN: Parsed order lines

	srv, _ := newTestServer(t)
	seedHotel(t, srv, "h-1", "Hotel Sunrise", "10kg chicken leg, 5kg mutton whole")

	for i, p := range []map[string]any{
		{"id": "1", "name": "Chicken Leg", "category": "chicken", "subcategory": "leg", "defaultRate": 180},
		{"id": "3", "name": "Mutton Whole", "category": "mutton", "subcategory": "whole", "defaultRate": 450},
	} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", p)
		require.Equal(t, http.StatusCreated, resp.StatusCode, "product %d", i)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/hotels/h-1/suggestions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lines []api.SuggestionDTO
	decodeBody(t, resp, &lines)
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].ProductID)
	assert.Equal(t, "10", lines[0].QuantityKg.String())
	assert.Equal(t, "3", lines[1].ProductID)
}

func TestAPI_GetHotelSuggestions_EmptyPreferences_EmptyList(t *testing.T) {
	srv, _ := newTestServer(t)
	seedHotel(t, srv, "h-1", "Hotel Sunrise", "")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/hotels/h-1/suggestions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lines []api.SuggestionDTO
	decodeBody(t, resp, &lines)
	assert.Empty(t, lines)
}

func TestAPI_SetBillPaid(t *testing.T) {
	// GIVEN: A hotel bill created by a sale line
	// WHEN: Marking it paid
	// THEN: The bill record flips to paid

	srv, _ := newTestServer(t)
	seedVendor(t, srv, "v-1", "Alam Traders")
	seedHotel(t, srv, "h-1", "Hotel Sunrise", "")
	seedPurchase(t, srv, "v-1", "chicken", "leg", 10, 180)

	saleResp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", map[string]any{
		"kind": "hotel", "hotelId": "h-1", "billNumber": "B-100",
		"category": "chicken", "subcategory": "leg",
		"quantityKg": 4, "ratePerKg": 240, "date": "2026-08-02",
	})
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/bills/B-100/paid", map[string]any{"paid": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bill api.BillDTO
	decodeBody(t, resp, &bill)
	assert.True(t, bill.Paid)
}

func TestAPI_SetBillPaid_UnknownBill_404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/bills/B-999/paid", map[string]any{"paid": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ProductCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]any{
		"id": "1", "name": "Chicken Leg", "category": "chicken", "subcategory": "leg", "defaultRate": 180,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/products/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p api.ProductDTO
	decodeBody(t, resp, &p)
	assert.Equal(t, "Chicken Leg", p.Name)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/products/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/products/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
