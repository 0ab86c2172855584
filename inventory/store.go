/*
store.go - Persistence interfaces for bindings, ledger, and audit trail

PURPOSE:
  Defines the interface between the domain logic and local storage.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  RegistryStore: (caller, channel) -> sheet bindings, atomic upsert
  LedgerStore:   append-only stock delta log
  AuditStore:    best-effort record of dispatched tool calls

APPEND-ONLY CONTRACT:
  LedgerStore has no Update or Delete. Ever. A wrong delta is corrected
  by appending a compensating delta.

UPSERT CONTRACT:
  RegistryStore.UpsertBinding must be atomic with respect to concurrent
  registrations of the same (caller, channel) key: last write commits,
  never a duplicate row.

IMPLEMENTATIONS:
  - store/sqlite: production store (users + logs + tool_calls tables)
  - store/memory: in-memory store for tests and dev

SEE ALSO:
  - ledger.go: higher-level ledger on top of LedgerStore
  - registry package: uses RegistryStore
*/
package inventory

import "context"

// =============================================================================
// REGISTRY STORE - Tenant bindings
// =============================================================================

// RegistryStore persists caller-to-sheet bindings.
type RegistryStore interface {
	// UpsertBinding inserts the binding, or overwrites SheetID and
	// UpdatedAt when (CallerID, Channel) already exists. Returns the
	// stored binding with timestamps filled in.
	UpsertBinding(ctx context.Context, b Binding) (Binding, error)

	// Binding returns the binding for (caller, channel), or nil when the
	// pair was never registered.
	Binding(ctx context.Context, caller CallerID, channel Channel) (*Binding, error)

	// Bindings returns all of a caller's bindings across channels,
	// most recently updated first.
	Bindings(ctx context.Context, caller CallerID) ([]Binding, error)
}

// =============================================================================
// LEDGER STORE - Append-only stock delta log
// =============================================================================

// LedgerStore persists stock mutations.
// IMPORTANT: append-only. No Update, no Delete.
type LedgerStore interface {
	// AppendEntry persists one ledger entry. This is the ONLY write.
	AppendEntry(ctx context.Context, e LedgerEntry) error

	// History returns all entries for (sheet, item), ascending by
	// CreatedAt. Finite and restartable: a fresh call re-reads from the
	// beginning.
	History(ctx context.Context, sheet SheetID, itemName string) ([]LedgerEntry, error)
}

// =============================================================================
// AUDIT STORE - Tool invocation trail
// =============================================================================

// AuditStore records dispatched tool calls. Implementations should be
// cheap; callers treat failures as warnings, never as operation failures.
type AuditStore interface {
	RecordToolCall(ctx context.Context, rec ToolCallRecord) error
}
