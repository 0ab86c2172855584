package inventory_test

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/store/memory"
)

func TestLedger_RecordAndHistory(t *testing.T) {
	store := memory.New()
	ledger := inventory.NewLedger(store)
	ctx := context.Background()

	snap := decimal.RequireFromString("40")
	ledger.Record(ctx, inventory.LedgerEntry{
		SheetID:  "sheet-1",
		CallerID: "user-1",
		ItemName: "Paper",
		Delta:    decimal.RequireFromString("-10"),
		Snapshot: &snap,
	})

	history, err := ledger.History(ctx, "sheet-1", "Paper")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotEmpty(t, history[0].ID)
	assert.False(t, history[0].CreatedAt.IsZero())
}

func TestLedger_RecordFailureIsWarnOnly(t *testing.T) {
	// A failed append logs a warning; the caller never sees an error.

	store := memory.New()
	store.FailAppends = fmt.Errorf("disk full")

	var buf bytes.Buffer
	ledger := inventory.NewLedger(store)
	ledger.SetLogger(log.New(&buf, "", 0))

	ledger.Record(context.Background(), inventory.LedgerEntry{
		SheetID:  "sheet-1",
		ItemName: "Paper",
		Delta:    decimal.RequireFromString("-10"),
	})

	assert.Contains(t, buf.String(), "WARN: ledger append failed")

	history, err := ledger.History(context.Background(), "sheet-1", "Paper")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLedger_ConsumptionHistoryFilters(t *testing.T) {
	// GIVEN: a mix of consumption, restock, and snapshot-less entries
	// THEN: only negative deltas with snapshots survive, oldest first

	store := memory.New()
	ledger := inventory.NewLedger(store)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	snapA := decimal.RequireFromString("40")
	snapB := decimal.RequireFromString("35")
	entries := []inventory.LedgerEntry{
		{SheetID: "sheet-1", ItemName: "Paper", Delta: decimal.RequireFromString("-10"), Snapshot: &snapA, CreatedAt: base},
		{SheetID: "sheet-1", ItemName: "Paper", Delta: decimal.RequireFromString("100"), Snapshot: &snapA, CreatedAt: base.Add(time.Hour)},
		{SheetID: "sheet-1", ItemName: "Paper", Delta: decimal.RequireFromString("-3"), CreatedAt: base.Add(2 * time.Hour)}, // no snapshot
		{SheetID: "sheet-1", ItemName: "Paper", Delta: decimal.RequireFromString("-5"), Snapshot: &snapB, CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, store.AppendEntry(ctx, e))
	}

	got, err := ledger.ConsumptionHistory(ctx, "sheet-1", "Paper")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Delta.Equal(decimal.RequireFromString("-10")))
	assert.True(t, got[1].Delta.Equal(decimal.RequireFromString("-5")))
}

func TestLedger_HistoryScopedBySheetAndItem(t *testing.T) {
	store := memory.New()
	ledger := inventory.NewLedger(store)
	ctx := context.Background()

	ledger.Record(ctx, inventory.LedgerEntry{SheetID: "sheet-1", ItemName: "Paper", Delta: decimal.RequireFromString("-1")})
	ledger.Record(ctx, inventory.LedgerEntry{SheetID: "sheet-1", ItemName: "Ink", Delta: decimal.RequireFromString("-2")})
	ledger.Record(ctx, inventory.LedgerEntry{SheetID: "sheet-2", ItemName: "Paper", Delta: decimal.RequireFromString("-3")})

	history, err := ledger.History(ctx, "sheet-1", "Paper")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Delta.Equal(decimal.RequireFromString("-1")))
}
