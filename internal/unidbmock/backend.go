// Package unidbmock serves the unidb table protocol from a local backend.
// It backs the test suite and `unidb-mock` for working offline.
package unidbmock

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Row is one stored entry, in the shape the store returns it.
type Row struct {
	EntryID string         `json:"entry_id"`
	Data    map[string]any `json:"data"`
}

// Backend persists rows per table. Update and Delete report false when the
// entry does not exist.
type Backend interface {
	All(ctx context.Context, table string) ([]Row, error)
	Insert(ctx context.Context, table string, data map[string]any) (string, error)
	Update(ctx context.Context, table, id string, data map[string]any) (bool, error)
	Delete(ctx context.Context, table, id string) (bool, error)
	Close() error
}

func newEntryID() string { return ulid.Make().String() }

// Memory keeps rows in insertion order.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Row
}

func NewMemory() *Memory {
	return &Memory{tables: map[string][]Row{}}
}

func (m *Memory) All(_ context.Context, table string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{EntryID: r.EntryID, Data: copyData(r.Data)}
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, table string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newEntryID()
	m.tables[table] = append(m.tables[table], Row{EntryID: id, Data: copyData(data)})
	return id, nil
}

func (m *Memory) Update(_ context.Context, table, id string, data map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	for i := range rows {
		if rows[i].EntryID == id {
			rows[i].Data = copyData(data)
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Delete(_ context.Context, table, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	for i := range rows {
		if rows[i].EntryID == id {
			m.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Close() error { return nil }

func copyData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
