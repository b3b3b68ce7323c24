/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Errors from the event store are surfaced unmodified to callers; the
  engine adds no silent fallback for financial operations.

ERROR CATEGORIES:
  1. Stock errors      - Sale rejected by the availability guard
  2. Validation errors - Malformed event input, rejected before persistence
  3. Reference errors  - Unknown vendor/hotel/product
  4. Store errors      - Timeout or transport failure; retryable by the
                         CALLER only. The engine never retries internally,
                         to avoid double-submitting a financial event.

USAGE:
  if errors.Is(err, ledger.ErrInsufficientStock) {
      var stockErr *ledger.InsufficientStockError
      errors.As(err, &stockErr) // stockErr.AvailableKg
  }

SEE ALSO:
  - guard.go: Produces InsufficientStockError
  - types.go: Validate produces ValidationError
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is returned when a sale would drive remaining
	// stock negative. Recoverable by reducing quantity; never auto-retried.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrValidation is returned for malformed event input. Rejected before
	// any persistence attempt.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for references to unknown vendors, hotels,
	// products, bills, or events.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned for store timeouts and transport
	// failures. The only class eligible for caller-initiated retry.
	ErrStoreUnavailable = errors.New("event store unavailable")

	// ErrDuplicateEvent is returned when appending an event whose id
	// already exists in the log.
	ErrDuplicateEvent = errors.New("duplicate event id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports how much stock was actually available when
// a sale was rejected, so the caller can offer a corrected quantity.
type InsufficientStockError struct {
	Category    string
	Subcategory string
	RequestedKg decimal.Decimal
	AvailableKg decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s/%s: requested %s kg, available %s kg",
		e.Category, e.Subcategory, e.RequestedKg, e.AvailableKg)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidationError identifies the field that failed event validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError names the missing reference.
type NotFoundError struct {
	Kind string // "vendor", "hotel", "product", "event", "bill"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateEvent)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
