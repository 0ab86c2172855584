/*
engine.go - Stock mutation engine

PURPOSE:
  Orchestrates a stock mutation end to end:
    resolve sheet -> read current quantity -> validate -> write -> ledger.
  Owns the two hard invariants:
    conservation: the recorded snapshot is exactly old + delta
    non-negativity: a mutation that would go below zero is rejected
      before anything is written

SERIALIZATION:
  The read-validate-write sequence is NOT safe against a concurrent
  mutation of the same row: two racing adjusts could both read the same
  quantity, both pass validation, and the second write would silently
  swallow the first. The engine therefore serializes mutations per
  (sheet, item) with a keyed mutex. Different items and different sheets
  proceed in parallel; the same row never interleaves.

LEDGER ON COMMIT:
  The ledger entry is appended only after the remote write succeeded,
  with a context detached from the caller's cancellation: once the
  remote committed, the history record must be attempted even if the
  caller has gone away.

SEE ALSO:
  - remote.go: row lookup shared with the forecaster
  - ledger.go: warn-only append policy
*/
package inventory

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/sheets"
)

// Engine performs consistency-checked stock mutations.
type Engine struct {
	resolver Resolver
	sheets   *sheets.Client
	ledger   *Ledger
	locks    keyedMutex
	logger   *log.Logger
}

// NewEngine creates a mutation engine.
func NewEngine(resolver Resolver, client *sheets.Client, ledger *Ledger) *Engine {
	return &Engine{
		resolver: resolver,
		sheets:   client,
		ledger:   ledger,
		logger:   log.Default(),
	}
}

// Lookup returns an item's current quantity.
func (e *Engine) Lookup(ctx context.Context, caller CallerID, itemName string) (Item, error) {
	if itemName == "" {
		return Item{}, &ValidationError{Field: "item_name", Message: "must not be empty"}
	}
	sheet, err := e.resolver.Resolve(ctx, caller)
	if err != nil {
		return Item{}, err
	}
	return findItem(ctx, e.sheets, sheet, itemName)
}

// Adjust applies a signed delta to an item's quantity.
//
// The write path is strictly ordered: read, validate, write, ledger.
// On InsufficientStock nothing is written and no ledger entry appears.
func (e *Engine) Adjust(ctx context.Context, caller CallerID, itemName string, delta decimal.Decimal) (Adjusted, error) {
	if itemName == "" {
		return Adjusted{}, &ValidationError{Field: "item_name", Message: "must not be empty"}
	}
	if delta.IsZero() {
		return Adjusted{}, &ValidationError{Field: "delta", Message: "must not be zero"}
	}

	sheet, err := e.resolver.Resolve(ctx, caller)
	if err != nil {
		return Adjusted{}, err
	}

	// Serialize the read-validate-write sequence per (sheet, item).
	unlock := e.locks.lock(string(sheet) + "\x00" + itemName)
	defer unlock()

	item, err := findItem(ctx, e.sheets, sheet, itemName)
	if err != nil {
		return Adjusted{}, err
	}

	newQty := item.Quantity.Add(delta)
	if newQty.IsNegative() {
		return Adjusted{}, &InsufficientStockError{
			ItemName:  itemName,
			Current:   item.Quantity,
			Requested: delta,
		}
	}

	cell := sheets.Cell(quantityColumn, item.Row)
	if err := e.sheets.WriteCell(ctx, string(sheet), cell, newQty.String()); err != nil {
		return Adjusted{}, wrapRemote(fmt.Sprintf("write %s", cell), err)
	}

	// The remote write committed; record history even if the caller's
	// context has since been canceled.
	e.ledger.Record(context.WithoutCancel(ctx), LedgerEntry{
		SheetID:  sheet,
		CallerID: caller,
		ItemName: itemName,
		Delta:    delta,
		Snapshot: &newQty,
	})

	return Adjusted{ItemName: itemName, OldQty: item.Quantity, NewQty: newQty}, nil
}

// =============================================================================
// KEYED MUTEX - Per-(sheet, item) serialization
// =============================================================================

// keyedMutex hands out one mutex per key. Entries are never reaped; the
// key space is bounded by the number of distinct (sheet, item) rows the
// process ever touches.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
