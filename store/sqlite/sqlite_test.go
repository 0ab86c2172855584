package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// BINDINGS
// =============================================================================

func TestUpsertBinding_InsertAndRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b, err := store.UpsertBinding(ctx, inventory.Binding{
		CallerID: "user-1", Channel: "slack", SheetID: "sheet-1",
	})
	require.NoError(t, err)
	assert.False(t, b.CreatedAt.IsZero())
	assert.False(t, b.UpdatedAt.IsZero())

	got, err := store.Binding(ctx, "user-1", "slack")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inventory.SheetID("sheet-1"), got.SheetID)
}

func TestUpsertBinding_ConflictOverwritesSheet(t *testing.T) {
	// GIVEN: an existing (user, channel) binding
	// WHEN: the same pair is upserted with a new sheet
	// THEN: one row remains, sheet moves, created_at is preserved

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertBinding(ctx, inventory.Binding{
		CallerID: "user-1", Channel: "slack", SheetID: "sheet-1",
	})
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	second, err := store.UpsertBinding(ctx, inventory.Binding{
		CallerID: "user-1", Channel: "slack", SheetID: "sheet-2",
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.SheetID("sheet-2"), second.SheetID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	all, err := store.Bindings(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBindings_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertBinding(ctx, inventory.Binding{CallerID: "user-1", Channel: "slack", SheetID: "sheet-1"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = store.UpsertBinding(ctx, inventory.Binding{CallerID: "user-1", Channel: "discord", SheetID: "sheet-2"})
	require.NoError(t, err)

	all, err := store.Bindings(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, inventory.Channel("discord"), all[0].Channel)
	assert.Equal(t, inventory.Channel("slack"), all[1].Channel)
}

func TestBinding_Missing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Binding(context.Background(), "nobody", "slack")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestAppendEntry_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := decimal.RequireFromString("40.5")
	err := store.AppendEntry(ctx, inventory.LedgerEntry{
		SheetID:  "sheet-1",
		CallerID: "user-1",
		ItemName: "Paper",
		Delta:    decimal.RequireFromString("-9.5"),
		Snapshot: &snap,
	})
	require.NoError(t, err)

	history, err := store.History(ctx, "sheet-1", "Paper")
	require.NoError(t, err)
	require.Len(t, history, 1)

	e := history[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, inventory.CallerID("user-1"), e.CallerID)
	assert.True(t, e.Delta.Equal(decimal.RequireFromString("-9.5")), "decimal text must round-trip exactly")
	require.NotNil(t, e.Snapshot)
	assert.True(t, e.Snapshot.Equal(snap))
	assert.False(t, e.CreatedAt.IsZero())
}

func TestAppendEntry_NullableFields(t *testing.T) {
	// Entries without an attributable caller or a snapshot store NULLs
	// and come back as zero values.

	store := newTestStore(t)
	ctx := context.Background()

	err := store.AppendEntry(ctx, inventory.LedgerEntry{
		SheetID:  "sheet-1",
		ItemName: "Paper",
		Delta:    decimal.RequireFromString("-3"),
	})
	require.NoError(t, err)

	history, err := store.History(ctx, "sheet-1", "Paper")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].CallerID)
	assert.Nil(t, history[0].Snapshot)
}

func TestHistory_AscendingAndScoped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	entries := []inventory.LedgerEntry{
		{SheetID: "sheet-1", ItemName: "Paper", Delta: decimal.RequireFromString("-2"), CreatedAt: base.Add(time.Hour)},
		{SheetID: "sheet-1", ItemName: "Paper", Delta: decimal.RequireFromString("-1"), CreatedAt: base},
		{SheetID: "sheet-1", ItemName: "Ink", Delta: decimal.RequireFromString("-9"), CreatedAt: base},
		{SheetID: "sheet-2", ItemName: "Paper", Delta: decimal.RequireFromString("-9"), CreatedAt: base},
	}
	for _, e := range entries {
		require.NoError(t, store.AppendEntry(ctx, e))
	}

	history, err := store.History(ctx, "sheet-1", "Paper")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Delta.Equal(decimal.RequireFromString("-1")), "oldest first")
	assert.True(t, history[1].Delta.Equal(decimal.RequireFromString("-2")))
}

// =============================================================================
// AUDIT
// =============================================================================

func TestRecordToolCall(t *testing.T) {
	store := newTestStore(t)

	err := store.RecordToolCall(context.Background(), inventory.ToolCallRecord{
		CallerID: "user-1",
		Channel:  "slack",
		Tool:     "adjust_stock",
		Args:     `{"item_name":"Paper","delta":-10}`,
	})
	require.NoError(t, err)
}
