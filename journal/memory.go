package journal

import (
	"context"
	"sync"
	"time"

	"github.com/rustyeddy/tradejournal/pkg/id"
)

// Memory keeps trades in process memory. Callers only ever receive copies.
type Memory struct {
	mu     sync.RWMutex
	trades map[string]Trade
	order  []string
	newID  func() string
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		trades: make(map[string]Trade),
		newID:  id.New,
		now:    time.Now,
	}
}

func (m *Memory) Insert(ctx context.Context, t Trade) (Trade, error) {
	if err := ctx.Err(); err != nil {
		return Trade{}, storageErr("insert", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = m.newID()
	}
	if _, ok := m.trades[t.ID]; ok {
		return Trade{}, ErrDuplicateID
	}
	t.CreatedAt = m.now().UTC()
	t.Rating = cloneRating(t.Rating)

	m.trades[t.ID] = t
	m.order = append(m.order, t.ID)

	out := t
	out.Rating = cloneRating(t.Rating)
	return out, nil
}

func (m *Memory) GetByID(ctx context.Context, tradeID string) (Trade, error) {
	if err := ctx.Err(); err != nil {
		return Trade{}, storageErr("get trade", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trades[tradeID]
	if !ok {
		return Trade{}, ErrNotFound
	}
	t.Rating = cloneRating(t.Rating)
	return t, nil
}

func (m *Memory) ListAll(ctx context.Context) ([]Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("list trades", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Trade, 0, len(m.order))
	for _, tid := range m.order {
		t := m.trades[tid]
		t.Rating = cloneRating(t.Rating)
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) SetRating(ctx context.Context, tradeID string, rating float64) error {
	if err := ctx.Err(); err != nil {
		return storageErr("set rating", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trades[tradeID]
	if !ok {
		return ErrNotFound
	}
	if t.Rating != nil {
		return nil
	}
	t.Rating = &rating
	m.trades[tradeID] = t
	return nil
}

func (m *Memory) Close() error {
	return nil
}
