package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	byPID map[string]Call
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byPID: make(map[string]Call), clock: time.Now}
}

func (m *MemoryStore) Create(ctx context.Context, c Call) error {
	_ = ctx
	if c.ID == "" || c.AccountID == "" || c.ProviderCallID == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byPID[c.ProviderCallID]; exists {
		return ErrInvalidArgument
	}
	m.byPID[c.ProviderCallID] = c
	return nil
}

func (m *MemoryStore) FindByProviderCallID(ctx context.Context, providerCallID string) (Call, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byPID[providerCallID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) AppendIVRStep(ctx context.Context, providerCallID, step string) error {
	_ = ctx
	if step == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byPID[providerCallID]
	if !ok {
		return ErrNotFound
	}
	c.IVRPath = append(c.IVRPath, step)
	c.UpdatedAt = m.clock().UTC()
	m.byPID[providerCallID] = c
	return nil
}

func (m *MemoryStore) Finish(ctx context.Context, providerCallID string, status Status, durationSeconds int) (Call, bool, error) {
	_ = ctx
	if !status.Terminal() {
		return Call{}, false, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byPID[providerCallID]
	if !ok {
		return Call{}, false, ErrNotFound
	}
	if c.Status.Terminal() {
		return c, false, nil
	}
	c.Status = status
	c.DurationSeconds = durationSeconds
	c.UpdatedAt = m.clock().UTC()
	m.byPID[providerCallID] = c
	return c, true, nil
}

func (m *MemoryStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]Call, error) {
	_ = ctx
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.byPID {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
