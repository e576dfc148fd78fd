package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and early development.
// The mutex stands in for the database's atomic UPDATE; increments observe
// the same commutativity contract as the Postgres implementation.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account)}
}

func (s *MemoryStore) Create(ctx context.Context, a Account) error {
	_ = ctx
	if a.ID == "" || a.PhoneNumber == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Account, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) FindByCustomerRef(ctx context.Context, customerRef string) (Account, error) {
	_ = ctx
	if customerRef == "" {
		return Account{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.StripeCustomerID == customerRef {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *MemoryStore) FindByPhoneNumber(ctx context.Context, phoneNumber string) (Account, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.PhoneNumber == phoneNumber {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, id string, metric Metric, amount int64) error {
	_ = ctx
	if id == "" || amount <= 0 {
		return ErrInvalidArgument
	}
	if !ValidMetric(metric) {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	switch metric {
	case MetricMinutes:
		a.MinutesUsed += amount
	case MetricSMS:
		a.SMSUsed += amount
	case MetricEmails:
		a.EmailsUsed += amount
	}
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func (s *MemoryStore) ResetPeriod(ctx context.Context, id string, status Status, start, end time.Time) error {
	_ = ctx
	if id == "" || !start.Before(end) {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.MinutesUsed = 0
	a.SMSUsed = 0
	a.EmailsUsed = 0
	a.Status = status
	a.CurrentPeriodStart = start
	a.CurrentPeriodEnd = end
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, id string, status Status) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func (s *MemoryStore) SetStatusAndPeriod(ctx context.Context, id string, status Status, start, end time.Time) error {
	_ = ctx
	if !start.Before(end) {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.CurrentPeriodStart = start
	a.CurrentPeriodEnd = end
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}
