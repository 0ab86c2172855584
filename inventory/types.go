/*
Package inventory provides the core stock accounting engine.

PURPOSE:
  Domain types and algorithms for tracking item quantities held in a
  remote spreadsheet, with a local append-only ledger of every change.
  The spreadsheet is authoritative for CURRENT state; the ledger is
  authoritative for HISTORY.

KEY CONCEPTS IN THIS FILE (types.go):
  - Binding: maps a caller (plus chat channel) to the sheet they operate on
  - Item: a named row with a current quantity
  - LedgerEntry: an immutable record of one stock delta and its snapshot
  - Adjusted / DepletionEstimate: typed operation results

DESIGN PRINCIPLES:
  1. Immutability: ledger entries are never modified or deleted
  2. Precision: decimal.Decimal for quantities (sheet cells are strings;
     float64 round-trips would drift)
  3. Type safety: CallerID / Channel / SheetID are distinct string types

SEE ALSO:
  - engine.go: mutation engine (owns the conservation invariant)
  - ledger.go: ledger append and history
  - store.go: persistence interfaces
*/
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// CallerID identifies the human or agent on whose behalf operations run.
// Opaque, stable across a session, never interpreted.
type CallerID string

// Channel is the chat platform a caller registered from ("slack", "discord",
// "web", ...). A caller may hold one binding per channel.
type Channel string

// SheetID is the remote spreadsheet identifier. Always the bare key, never
// a URL; see sheets.ExtractSheetID for normalization.
type SheetID string

// =============================================================================
// TENANT BINDING
// =============================================================================

// Binding links (caller, channel) to the sheet holding their inventory.
// Unique on (CallerID, Channel). Re-registration overwrites SheetID and
// UpdatedAt in place; bindings are never deleted.
type Binding struct {
	CallerID  CallerID
	Channel   Channel
	SheetID   SheetID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ITEMS
// =============================================================================

// Item is one inventory row. Name is the case-sensitive key in column A;
// Row is the 1-indexed sheet row it was found at (row 1 is the header).
type Item struct {
	Name     string
	Quantity decimal.Decimal
	Row      int
}

// ParseQuantity parses a sheet cell into a quantity. Empty cells count as
// zero, matching how spreadsheets present never-written cells.
func ParseQuantity(cell string) (decimal.Decimal, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cell)
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// LedgerEntry records a single stock mutation. Append-only: once written it
// is never updated or removed.
//
// Snapshot is the post-mutation quantity. It is a pointer because imported
// historical rows may lack one; entries without a snapshot are excluded from
// forecasting history.
type LedgerEntry struct {
	ID        string
	SheetID   SheetID
	CallerID  CallerID // empty when the mutation was not attributable
	ItemName  string
	Delta     decimal.Decimal
	Snapshot  *decimal.Decimal
	CreatedAt time.Time
}

// IsConsumption reports whether this entry drains stock. Only consumption
// entries feed the depletion forecast.
func (e LedgerEntry) IsConsumption() bool {
	return e.Delta.IsNegative()
}

// =============================================================================
// OPERATION RESULTS
// =============================================================================

// Adjusted is the result of a successful stock mutation.
type Adjusted struct {
	ItemName string
	OldQty   decimal.Decimal
	NewQty   decimal.Decimal
}

// DepletionEstimate projects when an item runs out, fitted from the
// consumption entries in the ledger.
type DepletionEstimate struct {
	ItemName    string
	CurrentQty  decimal.Decimal
	DailyRate   float64 // estimated units consumed per day (positive)
	DaysLeft    float64
	PredictedAt time.Time
	Samples     int
}

// ToolCallRecord is the audit trail of one dispatched tool invocation.
// Best-effort: failures to persist it never fail the tool call.
type ToolCallRecord struct {
	ID        string
	CallerID  CallerID
	Channel   Channel
	Tool      string
	Args      string
	CreatedAt time.Time
}
