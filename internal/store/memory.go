package store

import (
	"context"
	"sort"
	"sync"

	"github.com/seenimoa/stockbrief/pkg/models"
)

// MemoryStore keeps stocks in a map. Records are copied in and out so
// callers never share a *Stock with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	stocks map[string]*models.Stock
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stocks: make(map[string]*models.Stock)}
}

func (m *MemoryStore) Get(_ context.Context, symbol string) (*models.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stocks[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, stock *models.Stock) error {
	m.mu.Lock()
	m.stocks[stock.Symbol] = stock.Clone()
	m.mu.Unlock()
	return nil
}

// List returns all stocks ordered by symbol.
func (m *MemoryStore) List(_ context.Context) ([]*models.Stock, error) {
	m.mu.RLock()
	out := make([]*models.Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		out = append(out, s.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
