package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ariata/ariata/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore,
// keeping appended records per table. Useful for tests and dry runs.
type RecordStore struct {
	mu     sync.RWMutex
	tables map[string][]json.RawMessage
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		tables: make(map[string][]json.RawMessage),
	}
}

// Append writes records to the given table in one batch.
func (s *RecordStore) Append(_ context.Context, table string, records []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], records...)
	return nil
}

// Count returns the number of rows in a table.
func (s *RecordStore) Count(_ context.Context, table string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table]), nil
}

// Rows returns a copy of a table's records. Test helper.
func (s *RecordStore) Rows(table string) []json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]json.RawMessage, len(s.tables[table]))
	copy(rows, s.tables[table])
	return rows
}
