package dedupe

import (
	"context"
	"sync"

	dedupev1 "github.com/muhammadchandra19/market-simulator/internal/domain/dedupe/v1"
)

var _ dedupev1.Gate = (*Memory)(nil)

// Memory is an in-process Gate. It remembers every id for the life of the process.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemory returns an empty in-process gate.
func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// MarkIfNew implements dedupev1.Gate.
func (m *Memory) MarkIfNew(_ context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[orderID]; ok {
		return false, nil
	}
	m.seen[orderID] = struct{}{}
	return true, nil
}

// Len returns the number of remembered ids.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
