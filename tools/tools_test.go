package tools_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/registry"
	"github.com/warp/stock-engine/sheets"
	"github.com/warp/stock-engine/store/memory"
	"github.com/warp/stock-engine/tools"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestDispatcher(t *testing.T) (*tools.Dispatcher, *memory.Store, *sheets.Fake) {
	t.Helper()

	fake := sheets.NewFake()
	fake.Seed("sheet-1", [][]string{
		{"Item", "Qty"},
		{"Paper", "50"},
		{"Ink", "5"},
	})
	client := sheets.NewClient(fake, sheets.WithRetryPolicy(sheets.RetryPolicy{
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		Factor:      2,
	}))

	store := memory.New()
	reg := registry.New(store, client)
	ledger := inventory.NewLedger(store)
	engine := inventory.NewEngine(reg, client, ledger)
	scanner := inventory.NewScanner(reg, client, "")
	forecaster := inventory.NewForecaster(reg, client, ledger, 2)

	return tools.NewDispatcher(reg, engine, scanner, forecaster, store), store, fake
}

func dispatch(t *testing.T, d *tools.Dispatcher, name, args string) tools.Result {
	t.Helper()
	res, err := d.Dispatch(context.Background(), name, json.RawMessage(args))
	require.NoError(t, err)
	return res
}

// =============================================================================
// DISPATCH TABLE
// =============================================================================

func TestDefinitions_StableClosedSet(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	defs := d.Definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
		assert.NotEmpty(t, def.Description, "%s needs a description", def.Name)
		assert.NotNil(t, def.Schema, "%s needs a schema", def.Name)
	}
	assert.Equal(t, []string{
		"register_sheet",
		"lookup_stock",
		"adjust_stock",
		"scan_threshold",
		"forecast_depletion",
		"list_items",
	}, names)
}

func TestDispatch_UnknownToolIsAnError(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "delete_everything", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)
}

func TestDispatch_MalformedArgumentsFoldIntoResult(t *testing.T) {
	// Undecodable JSON is the caller's mistake, not an internal fault:
	// it comes back as a validation failure, never as a Go error.

	d, _, _ := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), "lookup_stock",
		json.RawMessage(`{"caller_id":`))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "validation_failed", res.Code)
}

// =============================================================================
// TOOL FLOWS
// =============================================================================

func TestDispatch_RegisterThenLookup(t *testing.T) {
	// GIVEN: a fresh caller
	// WHEN: they register a sheet and look up an item
	// THEN: both results are OK with the contract's phrasing

	d, _, _ := newTestDispatcher(t)

	res := dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)
	assert.True(t, res.OK)
	assert.Contains(t, res.Text, "OK: Registered sheet sheet-1")

	res = dispatch(t, d, "lookup_stock",
		`{"caller_id":"user-1","item_name":"Paper"}`)
	assert.True(t, res.OK)
	assert.Equal(t, "OK: Item: Paper, Current Quantity: 50", res.Text)
}

func TestDispatch_AdjustStock(t *testing.T) {
	d, _, fake := newTestDispatcher(t)
	dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)

	res := dispatch(t, d, "adjust_stock",
		`{"caller_id":"user-1","item_name":"Paper","delta":-10}`)
	assert.True(t, res.OK)
	assert.Equal(t, "OK: Success. Adjusted Paper by -10. New Qty: 40.", res.Text)
	assert.Equal(t, "40", fake.Rows("sheet-1")[1][1])
}

func TestDispatch_InsufficientStockFoldsIntoResult(t *testing.T) {
	// Operation failures are results, not Go errors: the orchestrator
	// branches on OK and forwards Text verbatim.

	d, _, _ := newTestDispatcher(t)
	dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)

	res := dispatch(t, d, "adjust_stock",
		`{"caller_id":"user-1","item_name":"Ink","delta":-10}`)
	assert.False(t, res.OK)
	assert.Equal(t, "insufficient_stock", res.Code)
	assert.Equal(t, "ERROR: Insufficient stock. Current: 5, Requested change: -10", res.Text)
}

func TestDispatch_ItemNotFound(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)

	res := dispatch(t, d, "lookup_stock",
		`{"caller_id":"user-1","item_name":"Stapler"}`)
	assert.False(t, res.OK)
	assert.Equal(t, "item_not_found", res.Code)
	assert.Equal(t, "ERROR: Item 'Stapler' not found.", res.Text)
}

func TestDispatch_UnregisteredCaller(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	res := dispatch(t, d, "lookup_stock",
		`{"caller_id":"stranger","item_name":"Paper"}`)
	assert.False(t, res.OK)
	assert.Equal(t, "not_registered", res.Code)
	assert.Contains(t, res.Text, "ERROR: No sheet registered")
}

func TestDispatch_ScanThresholdDefaultsToTen(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)

	res := dispatch(t, d, "scan_threshold", `{"caller_id":"user-1"}`)
	assert.True(t, res.OK)
	assert.Contains(t, res.Text, "Warning! Items at or below threshold (10): Ink (5)")

	res = dispatch(t, d, "scan_threshold", `{"caller_id":"user-1","threshold":1}`)
	assert.True(t, res.OK)
	assert.Equal(t, "OK: All items are above the threshold.", res.Text)
}

func TestDispatch_ForecastWithoutHistory(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)

	res := dispatch(t, d, "forecast_depletion",
		`{"caller_id":"user-1","item_name":"Paper"}`)
	assert.False(t, res.OK)
	assert.Equal(t, "insufficient_data", res.Code)
	assert.Contains(t, res.Text, "Not enough data to predict depletion for Paper.")
}

func TestDispatch_ListItems(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)

	res := dispatch(t, d, "list_items", `{"caller_id":"user-1"}`)
	assert.True(t, res.OK)
	assert.Equal(t, "OK: 2 items. Paper: 50; Ink: 5", res.Text)
}

// =============================================================================
// AUDIT
// =============================================================================

func TestDispatch_RecordsAuditTrail(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	dispatch(t, d, "register_sheet",
		`{"caller_id":"user-1","channel":"slack","sheet_id":"sheet-1"}`)
	dispatch(t, d, "lookup_stock",
		`{"caller_id":"user-1","item_name":"Paper"}`)

	calls := store.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "register_sheet", calls[0].Tool)
	assert.Equal(t, inventory.CallerID("user-1"), calls[0].CallerID)
	assert.Equal(t, inventory.Channel("slack"), calls[0].Channel)
	assert.Equal(t, "lookup_stock", calls[1].Tool)
	assert.JSONEq(t, `{"caller_id":"user-1","item_name":"Paper"}`, calls[1].Args)
}
