/*
Package tools exposes the inventory operations as a closed set of typed,
LLM-callable tools.

PURPOSE:
  The orchestration layer (out of scope here) drives this service by
  name: it picks a tool, supplies JSON arguments, and branches on the
  result. This package is that boundary: a dispatch table of typed
  operations, each with its own argument struct and JSON schema.

RESULTS:
  Every call produces a Result with both forms the contract requires:
  - Text: human-readable, prefixed "OK:" or "ERROR:" so the calling
    layer can branch without parsing
  - Data: the typed payload (Adjusted, []Item, DepletionEstimate, ...)

ERROR MAPPING:
  Operation failures never escape as Go errors; they are folded into
  Result{OK: false} with a stable machine code. Dispatch itself returns
  an error only for an unknown tool name.

AUDIT:
  Every dispatched call is recorded to the audit store, best-effort:
  a failed audit write logs a warning and the call proceeds.

SEE ALSO:
  - definitions.go: the six tools and their schemas
  - api: HTTP exposure of this surface
*/
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/registry"
	"github.com/warp/stock-engine/sheets"
)

// ErrUnknownTool is returned by Dispatch for names outside the table.
var ErrUnknownTool = errors.New("unknown tool")

// Result is the outcome of one tool call.
type Result struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
	Code string `json:"code,omitempty"` // set on failures
	Data any    `json:"data,omitempty"`
}

// Definition describes a tool to the orchestration layer: name, prose
// description, and a JSON schema for its arguments.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"parameters"`
}

type tool struct {
	def Definition
	run func(ctx context.Context, args json.RawMessage) (Result, error)
}

// Dispatcher routes tool calls to the inventory engine.
type Dispatcher struct {
	registry   *registry.Registry
	engine     *inventory.Engine
	scanner    *inventory.Scanner
	forecaster *inventory.Forecaster
	audit      inventory.AuditStore
	logger     *log.Logger

	table map[string]tool
	order []string // definition listing order
}

// NewDispatcher builds the dispatch table. audit may be nil.
func NewDispatcher(
	reg *registry.Registry,
	engine *inventory.Engine,
	scanner *inventory.Scanner,
	forecaster *inventory.Forecaster,
	audit inventory.AuditStore,
) *Dispatcher {
	d := &Dispatcher{
		registry:   reg,
		engine:     engine,
		scanner:    scanner,
		forecaster: forecaster,
		audit:      audit,
		logger:     log.Default(),
		table:      make(map[string]tool),
	}
	d.install()
	return d
}

func (d *Dispatcher) register(def Definition, run func(ctx context.Context, args json.RawMessage) (Result, error)) {
	d.table[def.Name] = tool{def: def, run: run}
	d.order = append(d.order, def.Name)
}

// Definitions lists the tools in a stable order, for the orchestrator's
// tool-selection prompt.
func (d *Dispatcher) Definitions() []Definition {
	out := make([]Definition, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.table[name].def)
	}
	return out
}

// Dispatch runs the named tool. The returned error is non-nil only for
// an unknown name; every other failure, undecodable arguments included,
// is folded into the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, ok := d.table[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	d.recordCall(ctx, name, args)

	res, err := t.run(ctx, args)
	if err != nil {
		return errorResult(err), nil
	}
	return res, nil
}

// recordCall appends to the audit trail, warn-only.
func (d *Dispatcher) recordCall(ctx context.Context, name string, args json.RawMessage) {
	if d.audit == nil {
		return
	}
	var meta struct {
		CallerID string `json:"caller_id"`
		Channel  string `json:"channel"`
	}
	_ = json.Unmarshal(args, &meta)

	err := d.audit.RecordToolCall(ctx, inventory.ToolCallRecord{
		CallerID: inventory.CallerID(meta.CallerID),
		Channel:  inventory.Channel(meta.Channel),
		Tool:     name,
		Args:     string(args),
	})
	if err != nil {
		d.logger.Printf("WARN: tool call audit failed for %s: %v", name, err)
	}
}

// =============================================================================
// ERROR FOLDING
// =============================================================================

func errorResult(err error) Result {
	code := "internal"
	switch {
	case errors.Is(err, inventory.ErrValidation):
		code = "validation_failed"
	case errors.Is(err, inventory.ErrNotRegistered):
		code = "not_registered"
	case errors.Is(err, inventory.ErrItemNotFound):
		code = "item_not_found"
	case errors.Is(err, inventory.ErrInsufficientStock):
		code = "insufficient_stock"
	case errors.Is(err, sheets.ErrSheetNotFound):
		code = "sheet_not_found"
	case errors.Is(err, inventory.ErrRemoteUnavailable):
		code = "remote_unavailable"
	case errors.Is(err, inventory.ErrInsufficientData):
		code = "insufficient_data"
	case errors.Is(err, inventory.ErrTrendUnclear):
		code = "trend_unclear"
	case errors.Is(err, inventory.ErrAlreadyDepleted):
		code = "already_depleted"
	}
	return Result{
		OK:   false,
		Text: "ERROR: " + errorText(err, code),
		Code: code,
	}
}

// errorText keeps the wording the chat layer already shows users.
func errorText(err error, code string) string {
	switch code {
	case "not_registered":
		return "No sheet registered for this caller. Register a sheet first."
	case "sheet_not_found":
		return "The registered sheet is no longer accessible."
	case "trend_unclear":
		return "Consumption trend is unclear."
	case "already_depleted":
		return "Item is already depleted."
	}

	var ins *inventory.InsufficientStockError
	if errors.As(err, &ins) {
		return fmt.Sprintf("Insufficient stock. Current: %s, Requested change: %s", ins.Current, ins.Requested)
	}
	var nf *inventory.ItemNotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("Item '%s' not found.", nf.ItemName)
	}
	var id *inventory.InsufficientDataError
	if errors.As(err, &id) {
		return fmt.Sprintf("Not enough data to predict depletion for %s.", id.ItemName)
	}
	return err.Error()
}

func okResult(text string, data any) Result {
	return Result{OK: true, Text: "OK: " + text, Data: data}
}
