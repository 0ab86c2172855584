// remote.go - Shared helpers for reading sheet rows as items.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/stock-engine/sheets"
)

// itemRange covers the name and quantity columns for all data rows.
// Row 1 is the header, so data starts at A2.
const itemRange = "A2:B"

// quantityColumn is where the current quantity lives.
const quantityColumn = "B"

// RemoteUnavailableError wraps a remote store failure surfaced to a caller
// after the adapter's retry budget (or breaker) gave up.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote store unavailable during %s: %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() []error {
	return []error{ErrRemoteUnavailable, e.Err}
}

// wrapRemote classifies a failed remote call. Permanent rejections (not
// found, forbidden, bad request) and the caller's own cancellation pass
// through untouched: the remote answered, it is not unavailable. Only
// exhausted retries and a tripped breaker read as RemoteUnavailable.
func wrapRemote(op string, err error) error {
	var re *sheets.RemoteError
	if errors.As(err, &re) && !re.Transient() {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RemoteUnavailableError{Op: op, Err: err}
}

// Resolver maps a caller to their sheet. Implemented by registry.Registry.
type Resolver interface {
	Resolve(ctx context.Context, caller CallerID) (SheetID, error)
}

// findItem scans the data rows for a case-sensitive name match in column A
// and returns the item with its sheet row number.
func findItem(ctx context.Context, client *sheets.Client, sheet SheetID, name string) (Item, error) {
	rows, err := client.ReadRange(ctx, string(sheet), itemRange)
	if err != nil {
		return Item{}, wrapRemote("read", err)
	}

	for i, row := range rows {
		if len(row) == 0 || row[0] != name {
			continue
		}
		cell := ""
		if len(row) > 1 {
			cell = row[1]
		}
		qty, err := ParseQuantity(cell)
		if err != nil {
			return Item{}, fmt.Errorf("item %q row %d: unparseable quantity %q: %w", name, i+2, cell, err)
		}
		return Item{Name: name, Quantity: qty, Row: i + 2}, nil
	}
	return Item{}, &ItemNotFoundError{ItemName: name, SheetID: sheet}
}
