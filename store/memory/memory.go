// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of all storage interfaces
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	bindings  map[bindingKey]inventory.Binding
	entries   map[ledgerKey][]inventory.LedgerEntry
	toolCalls []inventory.ToolCallRecord

	// FailAppends makes AppendEntry return this error. Used to test the
	// warn-only ledger degradation path.
	FailAppends error
}

type bindingKey struct {
	Caller  inventory.CallerID
	Channel inventory.Channel
}

type ledgerKey struct {
	Sheet inventory.SheetID
	Item  string
}

func New() *Store {
	return &Store{
		bindings: make(map[bindingKey]inventory.Binding),
		entries:  make(map[ledgerKey][]inventory.LedgerEntry),
	}
}

// UpsertBinding inserts or overwrites the (caller, channel) binding.
func (s *Store) UpsertBinding(_ context.Context, b inventory.Binding) (inventory.Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := bindingKey{Caller: b.CallerID, Channel: b.Channel}
	if existing, ok := s.bindings[key]; ok {
		existing.SheetID = b.SheetID
		existing.UpdatedAt = now
		s.bindings[key] = existing
		return existing, nil
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bindings[key] = b
	return b, nil
}

func (s *Store) Binding(_ context.Context, caller inventory.CallerID, channel inventory.Channel) (*inventory.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.bindings[bindingKey{Caller: caller, Channel: channel}]; ok {
		cp := b
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) Bindings(_ context.Context, caller inventory.CallerID) ([]inventory.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []inventory.Binding
	for key, b := range s.bindings {
		if key.Caller == caller {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// AppendEntry adds a ledger entry. Append-only.
func (s *Store) AppendEntry(_ context.Context, e inventory.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAppends != nil {
		return s.FailAppends
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	key := ledgerKey{Sheet: e.SheetID, Item: e.ItemName}
	s.entries[key] = append(s.entries[key], e)
	return nil
}

func (s *Store) History(_ context.Context, sheet inventory.SheetID, itemName string) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.entries[ledgerKey{Sheet: sheet, Item: itemName}]
	out := append([]inventory.LedgerEntry(nil), src...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) RecordToolCall(_ context.Context, rec inventory.ToolCallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.toolCalls = append(s.toolCalls, rec)
	return nil
}

// ToolCalls returns a copy of the audit trail, oldest first.
func (s *Store) ToolCalls() []inventory.ToolCallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]inventory.ToolCallRecord(nil), s.toolCalls...)
}
