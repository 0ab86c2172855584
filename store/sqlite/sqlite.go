/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements inventory.RegistryStore, inventory.LedgerStore and
  inventory.AuditStore on SQLite. The same patterns apply to PostgreSQL
  with minor dialect changes.

KEY TABLES:
  users:      (user_id, channel) -> sheet_id bindings, UNIQUE pair
  logs:       immutable ledger of stock deltas with post-write snapshots
  tool_calls: audit trail of dispatched tool invocations

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements touch logs or tool_calls. The only
  in-place write in the whole store is the users upsert, which is the
  documented last-write-wins registration semantics.

UPSERT:
  Registrations use INSERT ... ON CONFLICT(user_id, channel) DO UPDATE,
  which SQLite executes atomically; concurrent registrations of the same
  pair can never produce a duplicate row.

QUANTITY ENCODING:
  Deltas and snapshots are stored as decimal strings (TEXT), never as
  REAL, to keep exact round-trips.

WAL MODE:
  Opened with WAL for concurrent readers and crash recovery. Use
  ":memory:" for tests.

SEE ALSO:
  - inventory/store.go: interface contracts
  - store/memory: in-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema.
func (s *Store) migrate() error {
	schema := `
	-- Tenant bindings (last-write-wins upsert on the unique pair)
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		channel TEXT NOT NULL,
		sheet_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, channel)
	);
	CREATE INDEX IF NOT EXISTS idx_users_user ON users(user_id, updated_at);

	-- Stock ledger (append-only)
	CREATE TABLE IF NOT EXISTS logs (
		id TEXT PRIMARY KEY,
		sheet_id TEXT NOT NULL,
		user_id TEXT,
		item_name TEXT NOT NULL,
		delta_qty TEXT NOT NULL,
		snapshot_qty TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_logs_sheet_item ON logs(sheet_id, item_name, created_at);

	-- Tool invocation audit trail (append-only)
	CREATE TABLE IF NOT EXISTS tool_calls (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		channel TEXT,
		tool TEXT NOT NULL,
		message TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tool_calls_user ON tool_calls(user_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REGISTRY STORE
// =============================================================================

// UpsertBinding implements inventory.RegistryStore.
func (s *Store) UpsertBinding(ctx context.Context, b inventory.Binding) (inventory.Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, channel, sheet_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, channel) DO UPDATE SET
			sheet_id = excluded.sheet_id,
			updated_at = excluded.updated_at`,
		string(b.CallerID), string(b.Channel), string(b.SheetID),
		b.CreatedAt.Format(time.RFC3339Nano), b.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return inventory.Binding{}, fmt.Errorf("upserting binding: %w", err)
	}

	stored, err := s.bindingLocked(ctx, b.CallerID, b.Channel)
	if err != nil {
		return inventory.Binding{}, err
	}
	return *stored, nil
}

// Binding implements inventory.RegistryStore.
func (s *Store) Binding(ctx context.Context, caller inventory.CallerID, channel inventory.Channel) (*inventory.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindingLocked(ctx, caller, channel)
}

func (s *Store) bindingLocked(ctx context.Context, caller inventory.CallerID, channel inventory.Channel) (*inventory.Binding, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, channel, sheet_id, created_at, updated_at
		FROM users WHERE user_id = ? AND channel = ?`,
		string(caller), string(channel))

	b, err := scanBinding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading binding: %w", err)
	}
	return b, nil
}

// Bindings implements inventory.RegistryStore. Most recently updated first.
func (s *Store) Bindings(ctx context.Context, caller inventory.CallerID) ([]inventory.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, channel, sheet_id, created_at, updated_at
		FROM users WHERE user_id = ?
		ORDER BY updated_at DESC, id DESC`,
		string(caller))
	if err != nil {
		return nil, fmt.Errorf("loading bindings: %w", err)
	}
	defer rows.Close()

	var out []inventory.Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(r rowScanner) (*inventory.Binding, error) {
	var caller, channel, sheet, createdAt, updatedAt string
	if err := r.Scan(&caller, &channel, &sheet, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &inventory.Binding{
		CallerID:  inventory.CallerID(caller),
		Channel:   inventory.Channel(channel),
		SheetID:   inventory.SheetID(sheet),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

// =============================================================================
// LEDGER STORE
// =============================================================================

// AppendEntry implements inventory.LedgerStore. Append-only: there is no
// update or delete path for logs rows.
func (s *Store) AppendEntry(ctx context.Context, e inventory.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var caller any
	if e.CallerID != "" {
		caller = string(e.CallerID)
	}
	var snapshot any
	if e.Snapshot != nil {
		snapshot = e.Snapshot.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (id, sheet_id, user_id, item_name, delta_qty, snapshot_qty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.SheetID), caller, e.ItemName,
		e.Delta.String(), snapshot, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("appending ledger entry: %w", err)
	}
	return nil
}

// History implements inventory.LedgerStore. Ascending by created_at.
func (s *Store) History(ctx context.Context, sheet inventory.SheetID, itemName string) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sheet_id, user_id, item_name, delta_qty, snapshot_qty, created_at
		FROM logs WHERE sheet_id = ? AND item_name = ?
		ORDER BY created_at ASC, id ASC`,
		string(sheet), itemName)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var out []inventory.LedgerEntry
	for rows.Next() {
		var (
			e         inventory.LedgerEntry
			sheetID   string
			caller    sql.NullString
			delta     string
			snapshot  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &sheetID, &caller, &e.ItemName, &delta, &snapshot, &createdAt); err != nil {
			return nil, err
		}
		e.SheetID = inventory.SheetID(sheetID)
		if caller.Valid {
			e.CallerID = inventory.CallerID(caller.String)
		}
		if e.Delta, err = decimal.NewFromString(delta); err != nil {
			return nil, fmt.Errorf("parsing delta_qty: %w", err)
		}
		if snapshot.Valid {
			d, err := decimal.NewFromString(snapshot.String)
			if err != nil {
				return nil, fmt.Errorf("parsing snapshot_qty: %w", err)
			}
			e.Snapshot = &d
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// AUDIT STORE
// =============================================================================

// RecordToolCall implements inventory.AuditStore.
func (s *Store) RecordToolCall(ctx context.Context, rec inventory.ToolCallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_calls (id, user_id, channel, tool, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.CallerID), string(rec.Channel), rec.Tool, rec.Args,
		rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording tool call: %w", err)
	}
	return nil
}
