package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process ledger for development and tests.
type Memory struct {
	mu   sync.Mutex
	rows []Row
}

var _ Writer = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

// Append stores the row and returns a synthetic row reference.
func (m *Memory) Append(_ context.Context, r Row) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, r)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (m *Memory) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Row(nil), m.rows...)
}
