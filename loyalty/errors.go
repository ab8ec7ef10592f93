/*
errors.go - Centralized error types for the loyalty core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (CLI, HTTP handlers) classify errors with the helpers at the
  bottom instead of matching on error strings.

ERROR CATEGORIES:
  1. Validation errors - Malformed identifiers, non-positive amounts
  2. Invariant errors  - Breaches that should be unreachable (negative balance)
  3. Storage errors    - I/O failures on persistence
  4. Not-found         - Missing cards, empty query results

USAGE:
  Wrap with context where useful, match with errors.Is/errors.As:

    if errors.Is(err, loyalty.ErrCardNotFound) {
        // 404, not a failure
    }

SEE ALSO:
  - card.go: Entity-level validation uses these errors
  - store.go: CardStore implementations wrap I/O failures in StorageError
*/
package loyalty

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidCardNumber is returned when a card number is not exactly
	// sixteen digits.
	ErrInvalidCardNumber = errors.New("invalid card number: must be 16 digits")

	// ErrNonPositiveAmount is returned when a purchase or bonus amount
	// is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrCardExists is returned when registering a number that is already
	// present in the store. Card numbers are unique across the store.
	ErrCardExists = errors.New("card number already registered")

	// ErrCardNotFound is returned when a lookup finds no card. This is an
	// absent-result condition, not a failure.
	ErrCardNotFound = errors.New("card not found")

	// ErrCardInactive is returned when an operation requires an active card.
	ErrCardInactive = errors.New("card is inactive")

	// ErrDeductionRefused is returned when a deduction is not permitted:
	// insufficient balance, balance below the deduction minimum, or an
	// inactive card. The card is left unchanged.
	ErrDeductionRefused = errors.New("deduction refused")

	// ErrNilOperation is returned when appending a zero-value operation
	// to the history.
	ErrNilOperation = errors.New("operation must not be empty")

	// ErrNoOperations is returned when a statement period contains no
	// operations. Callers treat this as an empty result.
	ErrNoOperations = errors.New("no operations in period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvariantError reports a breach of a card invariant. Given validated
// inputs these are unreachable, but they are checked defensively and
// reported rather than silently clamped.
type InvariantError struct {
	CardNumber string
	Balance    decimal.Decimal
	Delta      decimal.Decimal
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation: card %s balance %s with delta %s would go negative",
		e.CardNumber, e.Balance.StringFixed(2), e.Delta.StringFixed(2))
}

// StorageError wraps an I/O failure on persistence. Fatal to the
// triggering operation; in-memory state is not rolled back.
type StorageError struct {
	Op   string // "load", "save", "migrate"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCardNumber) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrNilOperation)
}

// IsNotFound returns true if the error indicates a missing card or an
// empty query result.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrNoOperations)
}

// IsConflict returns true if the error is a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCardExists)
}

// IsStorage returns true if the error is a persistence failure.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
