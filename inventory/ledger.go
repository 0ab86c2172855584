/*
ledger.go - Stock ledger: append and history on top of LedgerStore

PURPOSE:
  Thin domain layer over LedgerStore. Two responsibilities:
  1. Record: append an entry WITHOUT ever failing the caller's logical
     operation. By the time we get here the remote write has committed;
     a local persistence hiccup must not roll that back, so failures are
     logged and swallowed.
  2. History queries, including the consumption-only view the forecaster
     needs.

CONSERVATION:
  Every entry's Snapshot equals the previous entry's Snapshot (or the
  pre-existing remote quantity for the first entry) plus its Delta. The
  engine guarantees this by recording the post-write quantity it just
  computed; the ledger only preserves it.

SEE ALSO:
  - engine.go: the only producer of entries
  - forecast.go: the main consumer of ConsumptionHistory
*/
package inventory

import (
	"context"
	"log"
)

// Ledger wraps a LedgerStore with the domain's append and query policies.
type Ledger struct {
	store  LedgerStore
	logger *log.Logger
}

// NewLedger creates a ledger over the given store.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store, logger: log.Default()}
}

// SetLogger overrides the warning logger (tests).
func (l *Ledger) SetLogger(logger *log.Logger) { l.logger = logger }

// Record appends an entry, best-effort. A failed append is logged as a
// warning and otherwise ignored: the remote write has already committed
// and this history record must never undo it.
func (l *Ledger) Record(ctx context.Context, e LedgerEntry) {
	if err := l.store.AppendEntry(ctx, e); err != nil {
		l.logger.Printf("WARN: ledger append failed for %s/%s (delta %s): %v",
			e.SheetID, e.ItemName, e.Delta, err)
	}
}

// History returns all entries for (sheet, item), ascending by CreatedAt.
func (l *Ledger) History(ctx context.Context, sheet SheetID, itemName string) ([]LedgerEntry, error) {
	return l.store.History(ctx, sheet, itemName)
}

// ConsumptionHistory returns only the entries that feed forecasting:
// negative deltas with a recorded snapshot, ascending by CreatedAt.
func (l *Ledger) ConsumptionHistory(ctx context.Context, sheet SheetID, itemName string) ([]LedgerEntry, error) {
	all, err := l.store.History(ctx, sheet, itemName)
	if err != nil {
		return nil, err
	}
	var out []LedgerEntry
	for _, e := range all {
		if e.IsConsumption() && e.Snapshot != nil {
			out = append(out, e)
		}
	}
	return out, nil
}
