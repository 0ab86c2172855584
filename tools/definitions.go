/*
definitions.go - The six inventory tools

PURPOSE:
  One block per tool: argument struct, JSON schema, handler. The schema
  text doubles as the tool description the LLM sees, so it spells out
  argument semantics (signs, defaults) rather than repeating type info.
*/
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

func (d *Dispatcher) install() {
	d.register(registerSheetDef, d.runRegisterSheet)
	d.register(lookupStockDef, d.runLookupStock)
	d.register(adjustStockDef, d.runAdjustStock)
	d.register(scanThresholdDef, d.runScanThreshold)
	d.register(forecastDepletionDef, d.runForecastDepletion)
	d.register(listItemsDef, d.runListItems)
}

func decodeArgs(args json.RawMessage, into any) error {
	dec := json.NewDecoder(strings.NewReader(string(args)))
	dec.UseNumber()
	if err := dec.Decode(into); err != nil {
		return &inventory.ValidationError{Field: "arguments", Message: err.Error()}
	}
	return nil
}

// parseNumber converts a JSON number (or numeric string) to a decimal.
func parseNumber(n json.Number, field string) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, &inventory.ValidationError{Field: field, Message: "is required"}
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, &inventory.ValidationError{Field: field, Message: "must be a number"}
	}
	return v, nil
}

// =============================================================================
// register_sheet
// =============================================================================

var registerSheetDef = Definition{
	Name:        "register_sheet",
	Description: "Register which spreadsheet holds the caller's inventory. Accepts a bare sheet id or a full spreadsheet URL. Re-registering overwrites the previous sheet for the same channel.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"caller_id": map[string]any{"type": "string", "description": "The caller's stable identity"},
			"channel":   map[string]any{"type": "string", "description": "Chat platform the caller registered from (slack, discord, web, ...)"},
			"sheet_id":  map[string]any{"type": "string", "description": "Sheet id or full spreadsheet URL"},
		},
		"required": []string{"caller_id", "channel", "sheet_id"},
	},
}

func (d *Dispatcher) runRegisterSheet(ctx context.Context, args json.RawMessage) (Result, error) {
	var a struct {
		CallerID string `json:"caller_id"`
		Channel  string `json:"channel"`
		SheetID  string `json:"sheet_id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return Result{}, err
	}

	b, err := d.registry.Register(ctx, inventory.CallerID(a.CallerID), inventory.Channel(a.Channel), a.SheetID)
	if err != nil {
		return Result{}, err
	}
	return okResult(
		fmt.Sprintf("Registered sheet %s for caller %s on %s.", b.SheetID, b.CallerID, b.Channel),
		b,
	), nil
}

// =============================================================================
// lookup_stock
// =============================================================================

var lookupStockDef = Definition{
	Name:        "lookup_stock",
	Description: "Look up the current stock quantity of a single item.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_name": map[string]any{"type": "string", "description": "Exact item name (case-sensitive)"},
			"caller_id": map[string]any{"type": "string", "description": "The caller's stable identity"},
		},
		"required": []string{"item_name", "caller_id"},
	},
}

func (d *Dispatcher) runLookupStock(ctx context.Context, args json.RawMessage) (Result, error) {
	var a struct {
		ItemName string `json:"item_name"`
		CallerID string `json:"caller_id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return Result{}, err
	}

	item, err := d.engine.Lookup(ctx, inventory.CallerID(a.CallerID), a.ItemName)
	if err != nil {
		return Result{}, err
	}
	return okResult(
		fmt.Sprintf("Item: %s, Current Quantity: %s", item.Name, item.Quantity),
		item,
	), nil
}

// =============================================================================
// adjust_stock
// =============================================================================

var adjustStockDef = Definition{
	Name:        "adjust_stock",
	Description: "Increase or decrease an item's stock. Positive delta restocks, negative delta consumes. A delta that would take stock below zero is rejected and nothing changes.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_name": map[string]any{"type": "string", "description": "Exact item name (case-sensitive)"},
			"delta":     map[string]any{"type": "number", "description": "Signed change, e.g. +5 or -3"},
			"caller_id": map[string]any{"type": "string", "description": "The caller's stable identity"},
		},
		"required": []string{"item_name", "delta", "caller_id"},
	},
}

func (d *Dispatcher) runAdjustStock(ctx context.Context, args json.RawMessage) (Result, error) {
	var a struct {
		ItemName string      `json:"item_name"`
		Delta    json.Number `json:"delta"`
		CallerID string      `json:"caller_id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return Result{}, err
	}
	delta, err := parseNumber(a.Delta, "delta")
	if err != nil {
		return Result{}, err
	}

	adj, err := d.engine.Adjust(ctx, inventory.CallerID(a.CallerID), a.ItemName, delta)
	if err != nil {
		return Result{}, err
	}
	return okResult(
		fmt.Sprintf("Success. Adjusted %s by %s. New Qty: %s.", adj.ItemName, delta, adj.NewQty),
		adj,
	), nil
}

// =============================================================================
// scan_threshold
// =============================================================================

var scanThresholdDef = Definition{
	Name:        "scan_threshold",
	Description: "Find all items whose stock is at or below a quantity threshold.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"threshold": map[string]any{"type": "number", "description": "Items at or below this quantity are reported", "default": 10},
			"caller_id": map[string]any{"type": "string", "description": "The caller's stable identity"},
		},
		"required": []string{"caller_id"},
	},
}

func (d *Dispatcher) runScanThreshold(ctx context.Context, args json.RawMessage) (Result, error) {
	var a struct {
		Threshold json.Number `json:"threshold"`
		CallerID  string      `json:"caller_id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return Result{}, err
	}
	threshold := decimal.NewFromInt(10)
	if a.Threshold != "" {
		var err error
		if threshold, err = parseNumber(a.Threshold, "threshold"); err != nil {
			return Result{}, err
		}
	}

	low, err := d.scanner.Scan(ctx, inventory.CallerID(a.CallerID), threshold)
	if err != nil {
		return Result{}, err
	}
	if len(low) == 0 {
		return okResult("All items are above the threshold.", low), nil
	}

	names := make([]string, len(low))
	for i, it := range low {
		names[i] = fmt.Sprintf("%s (%s)", it.Name, it.Quantity)
	}
	return okResult(
		fmt.Sprintf("Warning! Items at or below threshold (%s): %s", threshold, strings.Join(names, ", ")),
		low,
	), nil
}

// =============================================================================
// forecast_depletion
// =============================================================================

var forecastDepletionDef = Definition{
	Name:        "forecast_depletion",
	Description: "Predict when an item runs out of stock, based on its recorded consumption history.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_name": map[string]any{"type": "string", "description": "Exact item name (case-sensitive)"},
			"caller_id": map[string]any{"type": "string", "description": "The caller's stable identity"},
		},
		"required": []string{"item_name", "caller_id"},
	},
}

func (d *Dispatcher) runForecastDepletion(ctx context.Context, args json.RawMessage) (Result, error) {
	var a struct {
		ItemName string `json:"item_name"`
		CallerID string `json:"caller_id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return Result{}, err
	}

	est, err := d.forecaster.Forecast(ctx, inventory.CallerID(a.CallerID), a.ItemName)
	if err != nil {
		return Result{}, err
	}
	return okResult(
		fmt.Sprintf("Forecast for %s: Approx. %.1f days left. Estimated depletion: %s.",
			est.ItemName, est.DaysLeft, est.PredictedAt.Format("2006-01-02")),
		est,
	), nil
}

// =============================================================================
// list_items
// =============================================================================

var listItemsDef = Definition{
	Name:        "list_items",
	Description: "List every item on the caller's sheet with its current quantity. Used for inventory reports.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"caller_id": map[string]any{"type": "string", "description": "The caller's stable identity"},
		},
		"required": []string{"caller_id"},
	},
}

func (d *Dispatcher) runListItems(ctx context.Context, args json.RawMessage) (Result, error) {
	var a struct {
		CallerID string `json:"caller_id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return Result{}, err
	}

	items, err := d.scanner.List(ctx, inventory.CallerID(a.CallerID))
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return okResult("The sheet has no items.", items), nil
	}

	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s: %s", it.Name, it.Quantity)
	}
	return okResult(
		fmt.Sprintf("%d items. %s", len(items), strings.Join(lines, "; ")),
		items,
	), nil
}
