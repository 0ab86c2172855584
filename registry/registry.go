/*
Package registry maps caller identities to the sheet they operate on.

PURPOSE:
  Registration binds (caller, channel) to a sheet id; every other
  operation resolves a caller back to their sheet. Upsert, never
  duplicated: re-registering the same pair overwrites the sheet id.

READ PROBE:
  Registration validates the candidate sheet with a cheap read through
  the remote store adapter before committing the binding. A sheet the
  service cannot read is a sheet no later operation could use.

RESOLUTION SCOPE (documented open question):
  Resolve picks the caller's most recently updated binding across all
  channels, which matches the observed behavior this service replaces.
  Whether resolution should instead be channel-scoped is ambiguous in
  the calling contract, so ResolveChannel is provided for callers that
  know their channel, and Resolve stays last-write-wins for those that
  do not.

SEE ALSO:
  - inventory/store.go: RegistryStore contract
  - sheets: Probe and sheet-id normalization
*/
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/sheets"
)

// Registry registers and resolves tenant bindings.
type Registry struct {
	store  inventory.RegistryStore
	sheets *sheets.Client
}

// New creates a registry over the given store and remote adapter.
func New(store inventory.RegistryStore, client *sheets.Client) *Registry {
	return &Registry{store: store, sheets: client}
}

// Register validates and upserts a binding. The sheet id may be a bare id
// or a full spreadsheet URL; it is normalized before the probe.
func (r *Registry) Register(ctx context.Context, caller inventory.CallerID, channel inventory.Channel, sheetID string) (inventory.Binding, error) {
	if caller == "" {
		return inventory.Binding{}, &inventory.ValidationError{Field: "caller_id", Message: "must not be empty"}
	}
	if channel == "" {
		return inventory.Binding{}, &inventory.ValidationError{Field: "channel", Message: "must not be empty"}
	}
	id := sheets.ExtractSheetID(sheetID)
	if id == "" {
		return inventory.Binding{}, &inventory.ValidationError{Field: "sheet_id", Message: "must not be empty"}
	}

	// Probe before committing: a binding to an unreachable sheet would
	// just fail every later call.
	if err := r.sheets.Probe(ctx, id); err != nil {
		if errors.Is(err, sheets.ErrSheetNotFound) {
			return inventory.Binding{}, &inventory.ValidationError{
				Field:   "sheet_id",
				Message: fmt.Sprintf("sheet %q is not accessible", id),
			}
		}
		return inventory.Binding{}, fmt.Errorf("probing sheet %q: %w", id, err)
	}

	return r.store.UpsertBinding(ctx, inventory.Binding{
		CallerID: caller,
		Channel:  channel,
		SheetID:  inventory.SheetID(id),
	})
}

// Resolve returns the caller's sheet, most recently updated binding wins
// when the caller registered on several channels.
func (r *Registry) Resolve(ctx context.Context, caller inventory.CallerID) (inventory.SheetID, error) {
	bindings, err := r.store.Bindings(ctx, caller)
	if err != nil {
		return "", fmt.Errorf("resolving caller %q: %w", caller, err)
	}
	if len(bindings) == 0 {
		return "", inventory.ErrNotRegistered
	}
	return bindings[0].SheetID, nil
}

// ResolveChannel returns the binding for an exact (caller, channel) pair.
func (r *Registry) ResolveChannel(ctx context.Context, caller inventory.CallerID, channel inventory.Channel) (inventory.SheetID, error) {
	b, err := r.store.Binding(ctx, caller, channel)
	if err != nil {
		return "", fmt.Errorf("resolving caller %q on %q: %w", caller, channel, err)
	}
	if b == nil {
		return "", inventory.ErrNotRegistered
	}
	return b.SheetID, nil
}

// Bindings lists all of a caller's bindings, most recent first.
func (r *Registry) Bindings(ctx context.Context, caller inventory.CallerID) ([]inventory.Binding, error) {
	return r.store.Bindings(ctx, caller)
}
