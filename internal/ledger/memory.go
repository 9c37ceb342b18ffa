package ledger

import "sync"

// Memory is an in-process Ledger used by dry runs and tests. Contents
// are lost when the process exits.
type Memory struct {
	mu   sync.Mutex
	rows []Record
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// Exists scans recorded rows for the key.
func (m *Memory) Exists(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Key == key {
			return true, nil
		}
	}
	return false, nil
}

// Append stores one row.
func (m *Memory) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rec)
	return nil
}

// Rows returns a copy of all recorded rows in append order.
func (m *Memory) Rows() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.rows))
	copy(out, m.rows)
	return out
}
