package suggest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butcherbook/ledger-engine/ledger"
	"github.com/butcherbook/ledger-engine/suggest"
)

// =============================================================================
// TEST CATALOG
// =============================================================================

func testCatalog() []ledger.Product {
	return []ledger.Product{
		{ID: "1", Name: "Chicken Leg", Category: "chicken", Subcategory: "leg", DefaultRate: ledger.Dec(180)},
		{ID: "2", Name: "Chicken Breast", Category: "chicken", Subcategory: "breast", DefaultRate: ledger.Dec(200)},
		{ID: "3", Name: "Mutton Whole", Category: "mutton", Subcategory: "whole", DefaultRate: ledger.Dec(450)},
	}
}

// =============================================================================
// FREEFORM TIER
// =============================================================================

func TestResolve_Freeform_TwoSegments(t *testing.T) {
	// GIVEN: "10kg chicken leg, 5kg mutton whole" and a catalog containing both
	// WHEN: Resolving
	// THEN: Two lines with quantities 10 and 5 at the fallback rate

	lines := suggest.Resolve("10kg chicken leg, 5kg mutton whole", testCatalog())

	require.Len(t, lines, 2)
	assert.Equal(t, ledger.ProductID("1"), lines[0].ProductID)
	assert.Equal(t, "10", lines[0].QuantityKg.String())
	assert.Equal(t, suggest.DefaultFallbackRate.String(), lines[0].RatePerKg.String())
	assert.Equal(t, ledger.ProductID("3"), lines[1].ProductID)
	assert.Equal(t, "5", lines[1].QuantityKg.String())
}

func TestResolve_Freeform_CaseInsensitiveAndSpacing(t *testing.T) {
	// GIVEN: Mixed case and a space before "kg"
	// WHEN: Resolving
	// THEN: Still matches

	lines := suggest.Resolve("2.5 KG Chicken BREAST", testCatalog())

	require.Len(t, lines, 1)
	assert.Equal(t, ledger.ProductID("2"), lines[0].ProductID)
	assert.Equal(t, "2.5", lines[0].QuantityKg.String())
}

func TestResolve_Freeform_UnmatchedSegmentsDropped(t *testing.T) {
	// GIVEN: One resolvable segment and one naming an unknown product
	// WHEN: Resolving
	// THEN: The unknown segment is silently dropped

	lines := suggest.Resolve("10kg chicken leg, 3kg buffalo ribs", testCatalog())

	require.Len(t, lines, 1)
	assert.Equal(t, ledger.ProductID("1"), lines[0].ProductID)
}

func TestResolve_Freeform_NothingMatches_EmptyNotError(t *testing.T) {
	// GIVEN: Text with no parsable segments
	// WHEN: Resolving
	// THEN: Empty output; suggestions are advisory and never fail hard

	lines := suggest.Resolve("whatever they usually take", testCatalog())
	assert.Empty(t, lines)
}

func TestResolve_EmptyPreference(t *testing.T) {
	lines := suggest.Resolve("   ", testCatalog())
	assert.Empty(t, lines)
}

// =============================================================================
// JSON TIER
// =============================================================================

func TestResolve_JSONObject_NestedQuantityAndRate(t *testing.T) {
	// GIVEN: {"3": {"quantityKg": 4, "ratePerKg": 220}}
	// WHEN: Resolving
	// THEN: One line for product 3 with quantity 4 and rate 220

	lines := suggest.Resolve(`{"3": {"quantityKg": 4, "ratePerKg": 220}}`, testCatalog())

	require.Len(t, lines, 1)
	assert.Equal(t, ledger.ProductID("3"), lines[0].ProductID)
	assert.Equal(t, "4", lines[0].QuantityKg.String())
	assert.Equal(t, "220", lines[0].RatePerKg.String())
}

func TestResolve_JSONObject_BareQuantities(t *testing.T) {
	// GIVEN: {"1": 10, "2": 5} with plain numeric values
	// WHEN: Resolving
	// THEN: Lines keyed by product id, fallback rate, sorted by key

	lines := suggest.Resolve(`{"2": 5, "1": 10}`, testCatalog())

	require.Len(t, lines, 2)
	assert.Equal(t, ledger.ProductID("1"), lines[0].ProductID)
	assert.Equal(t, "10", lines[0].QuantityKg.String())
	assert.Equal(t, ledger.ProductID("2"), lines[1].ProductID)
	assert.Equal(t, suggest.DefaultFallbackRate.String(), lines[1].RatePerKg.String())
}

func TestResolve_JSONArray_UsedDirectly(t *testing.T) {
	// GIVEN: A JSON array already in line-item shape
	// WHEN: Resolving
	// THEN: Used as-is

	lines := suggest.Resolve(`[{"productId": "2", "quantityKg": "3", "ratePerKg": "210"}]`, testCatalog())

	require.Len(t, lines, 1)
	assert.Equal(t, ledger.ProductID("2"), lines[0].ProductID)
	assert.Equal(t, "3", lines[0].QuantityKg.String())
	assert.Equal(t, "210", lines[0].RatePerKg.String())
}

func TestResolve_JSONObject_NonPositiveEntriesDropped(t *testing.T) {
	// GIVEN: An object mixing a usable entry with a zero quantity
	// WHEN: Resolving
	// THEN: Only the usable entry survives

	lines := suggest.Resolve(`{"1": 0, "3": 2}`, testCatalog())

	require.Len(t, lines, 1)
	assert.Equal(t, ledger.ProductID("3"), lines[0].ProductID)
}

func TestResolve_JSONTierDoesNotFallThrough(t *testing.T) {
	// GIVEN: Valid JSON in an unusable shape (array of strings)
	// WHEN: Resolving
	// THEN: Empty output; valid JSON is never re-parsed as freeform prose

	lines := suggest.Resolve(`["10kg chicken leg"]`, testCatalog())
	assert.Empty(t, lines)
}

// =============================================================================
// RESOLVER CONFIGURATION
// =============================================================================

func TestResolver_CustomFallbackRate(t *testing.T) {
	// GIVEN: A resolver with a custom fallback rate
	// WHEN: Resolving freeform text
	// THEN: Lines carry the custom rate

	r := &suggest.Resolver{FallbackRate: ledger.Dec(250)}
	lines := r.Resolve("10kg chicken leg", testCatalog())

	require.Len(t, lines, 1)
	assert.Equal(t, "250", lines[0].RatePerKg.String())
}
