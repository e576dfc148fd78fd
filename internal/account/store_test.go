package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"frontdesk-platform/internal/plan"
)

func seedAccount(t *testing.T, s *MemoryStore) Account {
	t.Helper()
	now := time.Unix(1700000000, 0).UTC()
	a := Account{
		ID:                 "acct-1",
		BusinessName:       "Bluebird Dental",
		PhoneNumber:        "+15550001111",
		Plan:               plan.TierPro,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(30 * 24 * time.Hour),
		StripeCustomerID:   "cus_123",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Create(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	return a
}

func TestIncrementUsage(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	if err := s.IncrementUsage(ctx, "acct-1", MetricMinutes, 4); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := s.IncrementUsage(ctx, "acct-1", MetricSMS, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}

	a, err := s.FindByID(ctx, "acct-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a.MinutesUsed != 4 || a.SMSUsed != 1 || a.EmailsUsed != 0 {
		t.Fatalf("unexpected counters: %+v", a.Counters())
	}
}

func TestIncrementUsage_RejectsBadInput(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	if err := s.IncrementUsage(ctx, "acct-1", MetricMinutes, 0); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if err := s.IncrementUsage(ctx, "acct-1", Metric("faxes"), 1); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
	if err := s.IncrementUsage(ctx, "missing", MetricMinutes, 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementUsage_ConcurrentNoLostUpdates(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if err := s.IncrementUsage(ctx, "acct-1", MetricSMS, 1); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	a, err := s.FindByID(ctx, "acct-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a.SMSUsed != n {
		t.Fatalf("expected %d sms, got %d", n, a.SMSUsed)
	}
}

func TestResetPeriod(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	_ = s.IncrementUsage(ctx, "acct-1", MetricMinutes, 120)
	_ = s.IncrementUsage(ctx, "acct-1", MetricEmails, 7)
	_ = s.SetStatus(ctx, "acct-1", StatusPastDue)

	start := time.Unix(1702600000, 0).UTC()
	end := start.Add(30 * 24 * time.Hour)
	if err := s.ResetPeriod(ctx, "acct-1", StatusActive, start, end); err != nil {
		t.Fatalf("reset: %v", err)
	}

	a, _ := s.FindByID(ctx, "acct-1")
	if a.MinutesUsed != 0 || a.SMSUsed != 0 || a.EmailsUsed != 0 {
		t.Fatalf("expected zero counters, got %+v", a.Counters())
	}
	if a.Status != StatusActive {
		t.Fatalf("status = %s, want active in the same write as the reset", a.Status)
	}
	if !a.CurrentPeriodStart.Equal(start) || !a.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("period not rolled: %v .. %v", a.CurrentPeriodStart, a.CurrentPeriodEnd)
	}

	// Re-applying the same reset is harmless: counters stay zero.
	if err := s.ResetPeriod(ctx, "acct-1", StatusActive, start, end); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	a, _ = s.FindByID(ctx, "acct-1")
	if a.MinutesUsed != 0 || a.SMSUsed != 0 || a.EmailsUsed != 0 {
		t.Fatalf("expected zero counters after duplicate reset, got %+v", a.Counters())
	}
}

func TestResetPeriod_RejectsInvertedWindow(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	now := time.Now().UTC()
	if err := s.ResetPeriod(context.Background(), "acct-1", StatusActive, now, now); err == nil {
		t.Fatalf("expected error for start >= end")
	}
}

func TestFindByCustomerRef(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	a, err := s.FindByCustomerRef(ctx, "cus_123")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a.ID != "acct-1" {
		t.Fatalf("unexpected account: %s", a.ID)
	}
	if _, err := s.FindByCustomerRef(ctx, "cus_missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
