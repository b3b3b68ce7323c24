/*
Package suggest converts a hotel's stored order preferences into suggested
order lines for pre-filling the quick-order form.

PURPOSE:
  Hotels record what they habitually order either as structured JSON or as
  freeform prose ("10kg chicken leg, 5kg mutton whole"). This package makes
  a best-effort attempt to turn that text into concrete order lines against
  the product catalog.

STRATEGY (two tiers, structured first):
  1. JSON:
     - array  -> used directly as the suggestion list
     - object -> each key is a product id; each value is a raw quantity or
                 an object carrying quantityKg/ratePerKg
  2. Freeform (on JSON parse failure): split on commas, match each segment
     against "<number> kg <product name>", resolve the name by
     case-insensitive substring containment in either direction, and use a
     fixed fallback rate (no rate is inferable from free text).

FAILURE MODE:
  Segments that match nothing are silently dropped. Total failure yields an
  empty list, never an error: output is advisory, always confirmed by a
  human before becoming an order, and the form falls back to manual entry.
*/
package suggest

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/butcherbook/ledger-engine/ledger"
)

// OrderLine is one suggested line for the quick-order form.
type OrderLine struct {
	ProductID  ledger.ProductID `json:"productId"`
	QuantityKg decimal.Decimal  `json:"quantityKg"`
	RatePerKg  decimal.Decimal  `json:"ratePerKg"`
}

// DefaultFallbackRate is used when no rate can be extracted from the
// preference text.
var DefaultFallbackRate = decimal.NewFromInt(200)

// Resolver holds resolution settings. The zero value is not usable; use New.
type Resolver struct {
	FallbackRate decimal.Decimal
}

func New() *Resolver {
	return &Resolver{FallbackRate: DefaultFallbackRate}
}

// Resolve parses preference text with the default resolver.
func Resolve(preferred string, catalog []ledger.Product) []OrderLine {
	return New().Resolve(preferred, catalog)
}

// Resolve converts preference text into zero or more order lines.
func (r *Resolver) Resolve(preferred string, catalog []ledger.Product) []OrderLine {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		return nil
	}

	if lines, ok := r.resolveJSON(preferred); ok {
		return lines
	}
	return r.resolveFreeform(preferred, catalog)
}

// =============================================================================
// TIER 1 - Structured JSON
// =============================================================================

// jsonLine tolerates both the exact line-item shape and bare quantity values.
type jsonLine struct {
	QuantityKg decimal.Decimal `json:"quantityKg"`
	RatePerKg  decimal.Decimal `json:"ratePerKg"`
}

func (r *Resolver) resolveJSON(preferred string) ([]OrderLine, bool) {
	var raw any
	if err := json.Unmarshal([]byte(preferred), &raw); err != nil {
		return nil, false
	}

	switch raw.(type) {
	case []any:
		// Arrays are assumed to already match the line-item shape.
		var lines []OrderLine
		if err := json.Unmarshal([]byte(preferred), &lines); err != nil {
			return nil, true // valid JSON, wrong shape: no suggestions
		}
		return lines, true

	case map[string]any:
		var entries map[string]json.RawMessage
		if err := json.Unmarshal([]byte(preferred), &entries); err != nil {
			return nil, true
		}

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		// Object key order is unspecified; sort for deterministic output.
		sort.Strings(keys)

		var lines []OrderLine
		for _, key := range keys {
			line, ok := r.entryToLine(key, entries[key])
			if !ok {
				continue // best effort: drop unusable entries
			}
			lines = append(lines, line)
		}
		return lines, true

	default:
		// Bare JSON scalar (a number, a quoted string): fall through to
		// the freeform tier, which may still extract something.
		return nil, false
	}
}

func (r *Resolver) entryToLine(key string, raw json.RawMessage) (OrderLine, bool) {
	// Value may be a raw quantity...
	var qty decimal.Decimal
	if err := json.Unmarshal(raw, &qty); err == nil {
		if !qty.IsPositive() {
			return OrderLine{}, false
		}
		return OrderLine{
			ProductID:  ledger.ProductID(key),
			QuantityKg: qty,
			RatePerKg:  r.FallbackRate,
		}, true
	}

	// ...or a nested object carrying quantity and optionally rate.
	var nested jsonLine
	if err := json.Unmarshal(raw, &nested); err != nil {
		return OrderLine{}, false
	}
	if !nested.QuantityKg.IsPositive() {
		return OrderLine{}, false
	}
	rate := nested.RatePerKg
	if !rate.IsPositive() {
		rate = r.FallbackRate
	}
	return OrderLine{
		ProductID:  ledger.ProductID(key),
		QuantityKg: nested.QuantityKg,
		RatePerKg:  rate,
	}, true
}

// =============================================================================
// TIER 2 - Freeform prose
// =============================================================================

// segmentPattern matches "<number> kg <free-text product name>".
var segmentPattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*kg\.?\s+(.+?)\s*$`)

func (r *Resolver) resolveFreeform(preferred string, catalog []ledger.Product) []OrderLine {
	var lines []OrderLine
	for _, segment := range strings.Split(preferred, ",") {
		m := segmentPattern.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		qty, err := decimal.NewFromString(m[1])
		if err != nil || !qty.IsPositive() {
			continue
		}
		product, ok := matchProduct(m[2], catalog)
		if !ok {
			continue
		}
		lines = append(lines, OrderLine{
			ProductID:  product.ID,
			QuantityKg: qty,
			RatePerKg:  r.FallbackRate,
		})
	}
	return lines
}

// matchProduct resolves a free-text name by case-insensitive substring
// containment in either direction. First catalog match wins.
func matchProduct(name string, catalog []ledger.Product) (ledger.Product, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ledger.Product{}, false
	}
	for _, p := range catalog {
		candidate := strings.ToLower(p.Name)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return p, true
		}
	}
	return ledger.Product{}, false
}
