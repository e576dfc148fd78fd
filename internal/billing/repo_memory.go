package billing

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRecordRepo is an in-memory RecordRepository for tests. It mirrors the
// Postgres contract, including the (account_id, period_start) uniqueness.
type MemoryRecordRepo struct {
	mu      sync.Mutex
	records map[string]UsageRecord
}

func NewMemoryRecordRepo() *MemoryRecordRepo {
	return &MemoryRecordRepo{records: make(map[string]UsageRecord)}
}

func (m *MemoryRecordRepo) Insert(ctx context.Context, rec UsageRecord) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.AccountID == rec.AccountID && existing.PeriodStart.Equal(rec.PeriodStart) {
			return ErrDuplicatePeriod
		}
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryRecordRepo) FindByID(ctx context.Context, id string) (UsageRecord, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return UsageRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

func (m *MemoryRecordRepo) FindByPeriodStart(ctx context.Context, accountID string, start time.Time) (UsageRecord, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.AccountID == accountID && rec.PeriodStart.Equal(start) {
			return rec, nil
		}
	}
	return UsageRecord{}, ErrRecordNotFound
}

func (m *MemoryRecordRepo) MarkPaid(ctx context.Context, id, invoiceID string, paidAt time.Time) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.StripeInvoiceID = invoiceID
	rec.Paid = true
	t := paidAt
	rec.PaidAt = &t
	m.records[id] = rec
	return nil
}

func (m *MemoryRecordRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]UsageRecord, error) {
	_ = ctx
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UsageRecord
	for _, rec := range m.records {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PeriodStart.After(out[j].PeriodStart)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
