/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All failure kinds in one place. No error here is process-fatal: every
  operation returns a result or one of these, never crashes the service.

ERROR CATEGORIES:
  1. Registration errors - caller has no sheet bound, or bad input
  2. Mutation errors     - missing items, non-negativity violations
  3. Remote errors       - retries exhausted against the spreadsheet
  4. Forecast errors     - not enough history, unclear trend

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, inventory.ErrNotRegistered) { ... }

    var ins *inventory.InsufficientStockError
    if errors.As(err, &ins) {
        fmt.Println(ins.Current, ins.Requested)
    }

SEE ALSO:
  - engine.go: produces mutation errors
  - forecast.go: produces forecast errors
  - sheets: classifies transient vs permanent remote failures
*/
package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotRegistered is returned when a caller has no sheet binding.
	// Register a sheet before using any other operation.
	ErrNotRegistered = errors.New("caller not registered")

	// ErrItemNotFound is returned when no row in the sheet matches the
	// requested item name (case-sensitive match on column A).
	ErrItemNotFound = errors.New("item not found")

	// ErrInsufficientStock is returned when a mutation would take the
	// quantity below zero. Nothing is written.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrRemoteUnavailable is returned after the remote store adapter has
	// exhausted its retry budget. Hard failure for that call only.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrValidation is returned for bad input (empty sheet id, empty item
	// name) before any I/O happens.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientData is returned when the ledger holds fewer
	// consumption entries than the forecaster's minimum sample size.
	ErrInsufficientData = errors.New("not enough history to forecast")

	// ErrTrendUnclear is returned when the fitted consumption rate is not
	// positive, so no depletion date can be projected.
	ErrTrendUnclear = errors.New("consumption trend is unclear")

	// ErrAlreadyDepleted is returned when the current quantity is already
	// at or below zero; there is nothing left to forecast.
	ErrAlreadyDepleted = errors.New("item already depleted")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports a rejected mutation with the numbers that
// drove the decision.
type InsufficientStockError struct {
	ItemName  string
	Current   decimal.Decimal
	Requested decimal.Decimal // the delta that was asked for
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: current %s, requested change %s",
		e.ItemName, e.Current, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ItemNotFoundError identifies which item was missing from which sheet.
type ItemNotFoundError struct {
	ItemName string
	SheetID  SheetID
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %q not found in sheet %s", e.ItemName, e.SheetID)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

// ValidationError reports which field of a request was unusable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientDataError carries the forecaster's sample-size policy so the
// caller can explain what is missing.
type InsufficientDataError struct {
	ItemName string
	Have     int
	Need     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("not enough data to forecast %q: have %d consumption entries, need %d",
		e.ItemName, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the failure is the caller's to fix, as
// opposed to a remote or internal fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotRegistered) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrTrendUnclear) ||
		errors.Is(err, ErrAlreadyDepleted)
}

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrNotRegistered)
}
