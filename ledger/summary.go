/*
summary.go - Daily summary compilation

PURPOSE:
  Produces the per-day profitability report consumed by the presentation
  layer: what was bought and sold today, what it cost, what remains, and
  the day's retail/hotel profit split.

TWO WINDOW MODES:
  The compiler runs the inventory aggregator twice:
  - day-only, for the headline purchased/sold totals (a window sum)
  - cumulative-to-date, for RemainingKg and the cost basis (running totals)

PROFIT:
  Per sale type: sum(sale.Total) - sum(qty * AvgCostPerKg), where the
  average cost comes from the cumulative positions at aggregation time.
  Retail and hotel profit are reported separately; NetProfit is their sum
  and may be negative.

IDEMPOTENCE:
  Compilation is a pure read. Compiling the same date twice against the
  same event set yields identical results, byte for byte.

SEE ALSO:
  - inventory.go: AggregatePositions
  - store.go: Query ordering contract the report relies on
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// SummaryCompiler materializes DailySummary reports from the event log.
type SummaryCompiler struct {
	store EventStore
}

func NewSummaryCompiler(store EventStore) *SummaryCompiler {
	return &SummaryCompiler{store: store}
}

// Compile produces the report for one business date.
func (c *SummaryCompiler) Compile(ctx context.Context, date Date) (*DailySummary, error) {
	dayEvents, err := c.store.Query(ctx, EventFilter{From: date, To: date})
	if err != nil {
		return nil, err
	}
	cumulative, err := c.store.Query(ctx, EventFilter{To: date, Kinds: StockKinds()})
	if err != nil {
		return nil, err
	}

	positions := AggregatePositions(cumulative)

	// Cost basis: weighted-average cost per partition, cumulative to date.
	avgCost := make(map[PositionKey]decimal.Decimal, len(positions))
	remaining := decimal.Zero
	for _, p := range positions {
		avgCost[PositionKey{Category: p.Category, Subcategory: p.Subcategory}] = p.AvgCostPerKg
		remaining = remaining.Add(p.RemainingKg)
	}

	s := &DailySummary{
		Date:          date,
		PurchasedKg:   decimal.Zero,
		PurchaseCost:  decimal.Zero,
		SoldKg:        decimal.Zero,
		RetailRevenue: decimal.Zero,
		HotelRevenue:  decimal.Zero,
		RetailProfit:  decimal.Zero,
		HotelProfit:   decimal.Zero,
		RemainingKg:   remaining,
		Positions:     positions,
		Transactions:  dayEvents,
	}

	for _, e := range dayEvents {
		switch e.Kind {
		case KindPurchase:
			s.PurchasedKg = s.PurchasedKg.Add(e.QuantityKg)
			s.PurchaseCost = s.PurchaseCost.Add(e.Total)
		case KindRetailSale:
			s.SoldKg = s.SoldKg.Add(e.QuantityKg)
			s.RetailRevenue = s.RetailRevenue.Add(e.Total)
			s.RetailProfit = s.RetailProfit.Add(saleProfit(e, avgCost))
		case KindHotelSale:
			s.SoldKg = s.SoldKg.Add(e.QuantityKg)
			s.HotelRevenue = s.HotelRevenue.Add(e.Total)
			s.HotelProfit = s.HotelProfit.Add(saleProfit(e, avgCost))
		}
	}

	s.NetProfit = s.RetailProfit.Add(s.HotelProfit)
	return s, nil
}

// PositionsAsOf returns cumulative positions up to and including the date.
func (c *SummaryCompiler) PositionsAsOf(ctx context.Context, date Date) ([]InventoryPosition, error) {
	events, err := c.store.Query(ctx, EventFilter{To: date, Kinds: StockKinds()})
	if err != nil {
		return nil, err
	}
	return AggregatePositions(events), nil
}

// DayPositions returns positions for a single date's window only.
func (c *SummaryCompiler) DayPositions(ctx context.Context, date Date) ([]InventoryPosition, error) {
	events, err := c.store.Query(ctx, EventFilter{From: date, To: date, Kinds: StockKinds()})
	if err != nil {
		return nil, err
	}
	return AggregatePositions(events), nil
}

func saleProfit(e Event, avgCost map[PositionKey]decimal.Decimal) decimal.Decimal {
	cost := avgCost[e.PositionKey()] // zero if never purchased
	return e.Total.Sub(e.QuantityKg.Mul(cost))
}
